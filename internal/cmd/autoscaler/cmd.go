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

// Package autoscaler contains the commands of the storage autoscaler
package autoscaler

import (
	"fmt"

	"github.com/cloudnative-pg/machinery/pkg/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cloudnative-pg/storage-autoscaler/pkg/configuration"
)

// NewCmd creates the root command of the storage autoscaler
func NewCmd() *cobra.Command {
	logFlags := &log.Flags{}
	v := configuration.New()
	var configFile string

	cmd := &cobra.Command{
		Use:          "storage-autoscaler",
		Short:        "Scale the storage and IOPS of an RDS instance from its CloudWatch telemetry",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logFlags.ConfigureLogging()
			return configuration.ReadFile(v, configFile)
		},
	}

	logFlags.AddFlags(cmd.PersistentFlags())

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path of a YAML configuration file")
	flags.String("instance-id", "", "Identifier of the RDS instance to scale")
	flags.String("region", "", "AWS region of the instance")
	flags.String("topic-arn", "", "SNS topic receiving the notifications, none when empty")
	flags.String("limits-source", "", "Where the policy limits are read from. One of static|ssm")
	flags.Bool("clamp-scale-up", false, "Never propose a value above the configured maximum")
	flags.Bool("dry-run", false, "Evaluate without notifying or modifying the instance")

	mustBindFlags(v, flags, map[string]string{
		"instance_id":           "instance-id",
		"region":                "region",
		"topic_arn":             "topic-arn",
		"limits.source":         "limits-source",
		"limits.clamp_scale_up": "clamp-scale-up",
		"dry_run":               "dry-run",
	})

	cmd.AddCommand(
		newRunCmd(v),
		newServeCmd(v),
		newStatusCmd(v),
	)

	return cmd
}

// mustBindFlags binds each configuration key to its flag. A flag that was
// not set on the command line leaves the environment, the file and the
// defaults in charge.
func mustBindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, flagName := range keys {
		flag := flags.Lookup(flagName)
		if flag == nil {
			panic(fmt.Sprintf("flag %s is not registered", flagName))
		}
		if err := v.BindPFlag(key, flag); err != nil {
			panic(err)
		}
	}
}
