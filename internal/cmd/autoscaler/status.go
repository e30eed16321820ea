/*
Copyright © contributors to CloudNativePG, established as
CloudNativePG a Series of LF Projects, LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

SPDX-License-Identifier: Apache-2.0
*/

package autoscaler

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cheynewallace/tabby"
	"github.com/logrusorgru/aurora/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
	"github.com/cloudnative-pg/storage-autoscaler/pkg/configuration"
	"github.com/cloudnative-pg/storage-autoscaler/pkg/reconciler/autoresize"
)

// newStatusCmd creates the "status" subcommand
func newStatusCmd(v *viper.Viper) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the telemetry and the changes the next invocation would propose",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			format, err := parseOutputFormat(output, OutputFormatText, OutputFormatJSON, OutputFormatYAML)
			if err != nil {
				return err
			}

			cfg, err := configuration.Load(v)
			if err != nil {
				return err
			}

			reconciler, err := newReconciler(ctx, cfg, nil)
			if err != nil {
				return err
			}

			preview, err := reconciler.Preview(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if format != OutputFormatText {
				return printStructured(w, preview, format)
			}
			printText(w, preview, isTerminal(w))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(OutputFormatText), "Output format. One of text|json|yaml")

	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printText renders the preview for humans, coloring only terminals
func printText(w io.Writer, preview *autoresize.Preview, colors bool) {
	au := aurora.New(aurora.WithColors(colors))

	_, _ = fmt.Fprintf(w, "Instance: %s\n", au.Bold(preview.InstanceID))
	switch preview.Result.Status {
	case apiv1.StatusNoData:
		_, _ = fmt.Fprintf(w, "Status:   %s\n\n", au.Yellow("No storage metrics in the window"))
	default:
		_, _ = fmt.Fprintf(w, "Status:   %s\n\n", au.Green(preview.Result.Body))
	}

	printLimits(w, au, preview.Limits)
	printTelemetry(w, au, preview.Telemetry)

	if preview.State == nil {
		return
	}
	printState(w, au, *preview.State)

	if preview.Result.Decision != nil {
		printDecision(w, au, *preview.Result.Decision)
	}
}

func printLimits(w io.Writer, au *aurora.Aurora, limits apiv1.PolicyLimits) {
	_, _ = fmt.Fprintln(w, au.Bold("Policy Limits:"))
	t := newTable(w)
	t.AddHeader("DIMENSION", "MIN", "MAX", "STEP")
	t.AddLine("storage (GB)", limits.MinStorageGB, limits.MaxStorageGB, limits.StorageStepGB)
	t.AddLine("iops", limits.MinIOPS, limits.MaxIOPS, limits.IOPSStep)
	t.Print()

	clamping := "unclamped"
	if limits.ClampScaleUp {
		clamping = "clamped to the maximum"
	}
	_, _ = fmt.Fprintf(w, "Scale-up: %s\n\n", clamping)
}

func printTelemetry(w io.Writer, au *aurora.Aurora, telemetry apiv1.TelemetrySnapshot) {
	_, _ = fmt.Fprintln(w, au.Bold("Telemetry:"))
	if telemetry.HasStorageData() {
		_, _ = fmt.Fprintf(w, "  Free Storage: %.2f GB\n", telemetry.FreeStorageGB())
	} else {
		_, _ = fmt.Fprintf(w, "  Free Storage: %s\n", au.Yellow("no datapoint"))
	}
	_, _ = fmt.Fprintf(w, "  Read IOPS:    %.2f\n", telemetry.AverageReadIOPS)
	_, _ = fmt.Fprintf(w, "  Write IOPS:   %.2f\n", telemetry.AverageWriteIOPS)
	_, _ = fmt.Fprintf(w, "  Total IOPS:   %.2f\n\n", telemetry.TotalIOPS())
}

func printState(w io.Writer, au *aurora.Aurora, state apiv1.ResourceState) {
	_, _ = fmt.Fprintln(w, au.Bold("Instance State:"))
	_, _ = fmt.Fprintf(w, "  Allocated Storage: %d GB\n", state.AllocatedStorageGB)
	if state.IOPSReported {
		_, _ = fmt.Fprintf(w, "  Provisioned IOPS:  %d\n\n", state.ProvisionedIOPS)
	} else {
		_, _ = fmt.Fprintf(w, "  Provisioned IOPS:  %s\n\n", au.Yellow("not reported, assuming the minimum"))
	}
}

func printDecision(w io.Writer, au *aurora.Aurora, decision apiv1.ScalingDecision) {
	if decision.IsEmpty() {
		_, _ = fmt.Fprintln(w, au.Green("No scaling action needed"))
		return
	}

	_, _ = fmt.Fprintln(w, au.Bold("Proposed Changes:"))
	t := newTable(w)
	t.AddHeader("DIMENSION", "DIRECTION", "FROM", "TO")
	if change := decision.StorageChange; change != nil {
		t.AddLine("storage (GB)", colorDirection(au, change.Direction()), change.FromGB, change.ToGB)
	}
	if change := decision.IOPSChange; change != nil {
		t.AddLine("iops", colorDirection(au, change.Direction()), change.From, change.To)
	}
	t.Print()
}

func colorDirection(au *aurora.Aurora, direction apiv1.Direction) string {
	if direction == apiv1.DirectionUp {
		return au.Red(direction).String()
	}
	return au.Cyan(direction).String()
}

func newTable(w io.Writer) *tabby.Tabby {
	return tabby.NewCustom(tabwriter.NewWriter(w, 0, 0, 2, ' ', 0))
}
