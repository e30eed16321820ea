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
	"fmt"

	"github.com/cloudnative-pg/machinery/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
	"github.com/cloudnative-pg/storage-autoscaler/pkg/configuration"
	"github.com/cloudnative-pg/storage-autoscaler/pkg/management/metrics"
	"github.com/cloudnative-pg/storage-autoscaler/pkg/reconciler/autoresize"
)

// scheduleParser accepts cron expressions with a leading seconds field
var scheduleParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Invoker runs one invocation
type Invoker interface {
	Reconcile(ctx context.Context) apiv1.Result
}

// Scheduler fires invocations, skipping a firing while the previous one
// for the same instance is still running
type Scheduler struct {
	InstanceID string
	Invoker    Invoker
	Guard      *autoresize.RunGuard
}

// Fire runs one invocation unless another one is in progress. It reports
// whether the invocation ran.
func (s *Scheduler) Fire(ctx context.Context) bool {
	contextLogger := log.FromContext(ctx).WithValues("instance", s.InstanceID)

	if !s.Guard.TryAcquire(s.InstanceID) {
		contextLogger.Info("previous invocation still running, skipping")
		return false
	}
	defer s.Guard.Release(s.InstanceID)

	result := s.Invoker.Reconcile(ctx)
	contextLogger.Info("invocation completed", "status", result.Status, "body", result.Body)
	return true
}

// newServeCmd creates the "serve" subcommand
func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the auto scaling invocations on a schedule and expose the metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := configuration.Load(v)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			recorder := metrics.NewMetrics()
			if err := recorder.Register(registry); err != nil {
				return err
			}

			reconciler, err := newReconciler(ctx, cfg, recorder)
			if err != nil {
				return err
			}

			return serve(ctx, cfg, &Scheduler{
				InstanceID: cfg.InstanceID,
				Invoker:    reconciler,
				Guard:      autoresize.NewRunGuard(),
			}, registry)
		},
	}

	cmd.Flags().String("schedule", "", "Cron schedule of the invocations, with a leading seconds field")
	cmd.Flags().String("metrics-address", "", "Address of the metrics endpoint, disabled when empty")
	mustBindFlags(v, cmd.Flags(), map[string]string{
		"serve.schedule":        "schedule",
		"serve.metrics_address": "metrics-address",
	})

	return cmd
}

// serve runs the scheduler until the context is cancelled
func serve(ctx context.Context, cfg *configuration.Config, scheduler *Scheduler, gatherer prometheus.Gatherer) error {
	contextLogger := log.FromContext(ctx).WithName("serve")

	schedule, err := scheduleParser.Parse(cfg.Serve.Schedule)
	if err != nil {
		return fmt.Errorf("while parsing schedule %q: %w", cfg.Serve.Schedule, err)
	}

	c := cron.New()
	c.Schedule(schedule, cron.FuncJob(func() {
		scheduler.Fire(ctx)
	}))
	c.Start()
	defer c.Stop()

	contextLogger.Info("scheduler started",
		"instance", cfg.InstanceID,
		"schedule", cfg.Serve.Schedule,
		"dryRun", cfg.DryRun)

	if cfg.Serve.MetricsAddress == "" {
		<-ctx.Done()
		return nil
	}

	return metrics.NewServer(cfg.Serve.MetricsAddress, gatherer).Start(ctx)
}
