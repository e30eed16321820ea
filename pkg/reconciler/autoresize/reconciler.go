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

package autoresize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudnative-pg/machinery/pkg/log"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
)

// Reconciler runs one invocation of the autoscaler against a single
// database instance. Every collaborator is injected so that tests can
// substitute fakes.
type Reconciler struct {
	InstanceID string

	Limits      LimitsSource
	Telemetry   TelemetrySource
	Inspector   ResourceInspector
	Provisioner Provisioner
	Notifier    Notifier

	// Recorder is optional
	Recorder Recorder

	// Window and Period default to DefaultWindow and DefaultPeriod
	Window time.Duration
	Period time.Duration

	// DryRun evaluates and reports without notifying or provisioning
	DryRun bool
}

// Reconcile runs the pipeline: limits -> telemetry -> no-data check ->
// resource state -> decision -> notifications -> one combined modification
// request -> summary. Fatal errors are reported through the notifier, best
// effort, and returned as an error result; nothing is partially applied.
func (r *Reconciler) Reconcile(ctx context.Context) apiv1.Result {
	contextLogger := log.FromContext(ctx).WithName("autoresize").WithValues("instance", r.InstanceID)
	ctx = log.IntoContext(ctx, contextLogger)

	result, err := r.reconcile(ctx)
	if err != nil {
		contextLogger.Error(err, "auto scaling invocation failed")
		if !r.DryRun {
			r.notify(ctx, fmt.Sprintf("Auto scaling of RDS %s failed: %v", r.InstanceID, err))
		}
		result = apiv1.Result{
			Status: apiv1.StatusError,
			Body:   err.Error(),
			DryRun: r.DryRun,
		}
	}

	r.recorder().RecordOutcome(r.InstanceID, result.Status)
	return result
}

func (r *Reconciler) reconcile(ctx context.Context) (apiv1.Result, error) {
	contextLogger := log.FromContext(ctx)

	limits, err := r.Limits.GetLimits(ctx)
	if err != nil {
		return apiv1.Result{}, fmt.Errorf("while reading policy limits: %w", err)
	}
	if err := limits.Validate(); err != nil {
		return apiv1.Result{}, err
	}

	telemetry, err := r.Telemetry.GetTelemetry(ctx, r.InstanceID, r.window(), r.period())
	if err != nil {
		return apiv1.Result{}, fmt.Errorf("while fetching telemetry: %w", err)
	}

	if !telemetry.HasStorageData() {
		contextLogger.Info("No storage metric data available")
		return apiv1.Result{Status: apiv1.StatusNoData, Body: "No metrics", DryRun: r.DryRun}, nil
	}

	contextLogger.Debug("telemetry received",
		"freeStorageGB", telemetry.FreeStorageGB(),
		"averageReadIOPS", telemetry.AverageReadIOPS,
		"averageWriteIOPS", telemetry.AverageWriteIOPS)

	state, err := r.Inspector.GetResourceState(ctx, r.InstanceID)
	if err != nil {
		return apiv1.Result{}, fmt.Errorf("while describing the instance: %w", err)
	}
	if !state.IOPSReported {
		contextLogger.Debug("provisioned IOPS not reported, assuming the policy minimum",
			"minIOPS", limits.MinIOPS)
	}
	state = EffectiveState(state, limits)

	contextLogger.Info("evaluating scaling",
		"freeStorageGB", apiv1.RoundGB(telemetry.FreeStorageGB()),
		"totalIOPS", telemetry.TotalIOPS(),
		"allocatedStorageGB", state.AllocatedStorageGB,
		"provisionedIOPS", state.ProvisionedIOPS,
		"iopsReported", state.IOPSReported)
	r.recorder().ObserveEvaluation(r.InstanceID, telemetry, state)

	evaluation := Decide(telemetry, state, limits)
	decision := evaluation.Decision

	result := apiv1.Result{
		Status:   apiv1.StatusOK,
		Body:     apiv1.SummaryBody(telemetry, state),
		Decision: &decision,
		DryRun:   r.DryRun,
	}

	if decision.IsEmpty() {
		contextLogger.Info("No scaling action needed")
		return result, nil
	}

	if change := decision.StorageChange; change != nil {
		contextLogger.Info("storage change proposed", "from", change.FromGB, "to", change.ToGB)
		r.recorder().RecordChange(r.InstanceID, DimensionStorage, change.Direction())
		if !r.DryRun {
			r.notify(ctx, StorageChangeMessage(r.InstanceID, change))
		}
	}

	if change := decision.IOPSChange; change != nil {
		contextLogger.Info("IOPS change proposed", "from", change.From, "to", change.To)
		r.recorder().RecordChange(r.InstanceID, DimensionIOPS, change.Direction())
		if !r.DryRun {
			r.notify(ctx, IOPSChangeMessage(r.InstanceID, change))
		}
	}

	if r.DryRun {
		contextLogger.Info("dry run, modification request not submitted")
		return result, nil
	}

	if err := r.Provisioner.ApplyChange(ctx, r.InstanceID, NewChangeRequest(decision)); err != nil {
		return apiv1.Result{}, fmt.Errorf("while submitting the modification request: %w", err)
	}

	contextLogger.Info("modification request submitted")
	result.Submitted = true
	return result, nil
}

// EffectiveState returns the state the decision is taken on: an instance
// not reporting provisioned IOPS is assumed to run at the policy minimum.
func EffectiveState(state apiv1.ResourceState, limits apiv1.PolicyLimits) apiv1.ResourceState {
	if !state.IOPSReported {
		state.ProvisionedIOPS = limits.MinIOPS
	}
	return state
}

// notify publishes a message and swallows any failure.
func (r *Reconciler) notify(ctx context.Context, message string) {
	if r.Notifier == nil {
		return
	}

	if err := r.Notifier.Publish(ctx, NotificationSubject, message); err != nil {
		if !errors.Is(err, apiv1.ErrNotifierFailure) {
			err = fmt.Errorf("%w: %w", apiv1.ErrNotifierFailure, err)
		}
		log.FromContext(ctx).Warning("failed to publish notification",
			"message", message,
			"error", err)
	}
}

func (r *Reconciler) recorder() Recorder {
	if r.Recorder == nil {
		return noopRecorder{}
	}
	return r.Recorder
}

func (r *Reconciler) window() time.Duration {
	if r.Window <= 0 {
		return DefaultWindow
	}
	return r.Window
}

func (r *Reconciler) period() time.Duration {
	if r.Period <= 0 {
		return DefaultPeriod
	}
	return r.Period
}
