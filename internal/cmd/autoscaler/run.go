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
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
	"github.com/cloudnative-pg/storage-autoscaler/pkg/configuration"
)

// errInvocationFailed is returned by run when the invocation reported an
// error result, making the process exit with a non zero status
var errInvocationFailed = errors.New("auto scaling invocation failed")

// newRunCmd creates the "run" subcommand
func newRunCmd(v *viper.Viper) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single auto scaling invocation and print its result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			format, err := parseOutputFormat(output, OutputFormatJSON, OutputFormatYAML)
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

			return writeResult(cmd.OutOrStdout(), reconciler.Reconcile(ctx), format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(OutputFormatJSON), "Output format. One of json|yaml")

	return cmd
}

// writeResult prints the result, failing when it is an error result
func writeResult(w io.Writer, result apiv1.Result, format OutputFormat) error {
	if err := printStructured(w, result, format); err != nil {
		return err
	}

	if result.Status == apiv1.StatusError {
		return fmt.Errorf("%w: %s", errInvocationFailed, result.Body)
	}
	return nil
}
