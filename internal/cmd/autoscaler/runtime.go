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
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/cloudnative-pg/machinery/pkg/log"

	"github.com/cloudnative-pg/storage-autoscaler/pkg/cloud/amazon"
	"github.com/cloudnative-pg/storage-autoscaler/pkg/configuration"
	"github.com/cloudnative-pg/storage-autoscaler/pkg/reconciler/autoresize"
)

// newReconciler wires the AWS adapters selected by the configuration
func newReconciler(
	ctx context.Context,
	cfg *configuration.Config,
	recorder autoresize.Recorder,
) (*autoresize.Reconciler, error) {
	awsConfig, err := amazon.LoadConfig(ctx, cfg.Region, cfg.AWS.RetryMaxAttempts)
	if err != nil {
		return nil, err
	}

	instance := amazon.NewInstance(rds.NewFromConfig(awsConfig))
	reconciler := &autoresize.Reconciler{
		InstanceID:  cfg.InstanceID,
		Limits:      newLimitsSource(cfg, func() amazon.SSMAPI { return ssm.NewFromConfig(awsConfig) }),
		Telemetry:   amazon.NewTelemetrySource(cloudwatch.NewFromConfig(awsConfig), nil),
		Inspector:   instance,
		Provisioner: instance,
		Recorder:    recorder,
		Window:      cfg.Telemetry.Window,
		Period:      cfg.Telemetry.Period,
		DryRun:      cfg.DryRun,
	}

	if cfg.TopicARN != "" {
		reconciler.Notifier = amazon.NewNotifier(sns.NewFromConfig(awsConfig), cfg.TopicARN)
	} else {
		log.FromContext(ctx).Info("no notification topic configured, notifications are disabled")
	}

	return reconciler, nil
}

// newLimitsSource returns the limits source selected by the configuration.
// The Parameter Store client is only created when needed.
func newLimitsSource(cfg *configuration.Config, ssmClient func() amazon.SSMAPI) autoresize.LimitsSource {
	if cfg.Limits.Source == configuration.LimitsSourceSSM {
		return amazon.NewParameterLimits(ssmClient(), cfg.ParameterPrefix(), cfg.Limits.ClampScaleUp)
	}
	return configuration.StaticLimits{Limits: cfg.PolicyLimits()}
}
