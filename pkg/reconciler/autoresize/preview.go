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
	"fmt"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
)

// Preview is a read only evaluation of an instance, including the inputs
// the decision was taken on.
type Preview struct {
	InstanceID string                  `json:"instanceID"`
	Limits     apiv1.PolicyLimits      `json:"limits"`
	Telemetry  apiv1.TelemetrySnapshot `json:"telemetry"`

	// State is nil when no storage datapoint was available and the
	// instance was not inspected
	State *apiv1.ResourceState `json:"state,omitempty"`

	Result apiv1.Result `json:"result"`
}

// Preview evaluates the instance like Reconcile does, without notifying,
// provisioning or recording anything. Errors are returned, not reported.
func (r *Reconciler) Preview(ctx context.Context) (*Preview, error) {
	limits, err := r.Limits.GetLimits(ctx)
	if err != nil {
		return nil, fmt.Errorf("while reading policy limits: %w", err)
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	telemetry, err := r.Telemetry.GetTelemetry(ctx, r.InstanceID, r.window(), r.period())
	if err != nil {
		return nil, fmt.Errorf("while fetching telemetry: %w", err)
	}

	preview := &Preview{
		InstanceID: r.InstanceID,
		Limits:     limits,
		Telemetry:  telemetry,
	}

	if !telemetry.HasStorageData() {
		preview.Result = apiv1.Result{Status: apiv1.StatusNoData, Body: "No metrics", DryRun: true}
		return preview, nil
	}

	state, err := r.Inspector.GetResourceState(ctx, r.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("while describing the instance: %w", err)
	}
	preview.State = &state

	effective := EffectiveState(state, limits)
	decision := Decide(telemetry, effective, limits).Decision
	preview.Result = apiv1.Result{
		Status:   apiv1.StatusOK,
		Body:     apiv1.SummaryBody(telemetry, effective),
		Decision: &decision,
		DryRun:   true,
	}

	return preview, nil
}
