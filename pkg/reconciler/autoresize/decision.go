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
	"fmt"

	"k8s.io/utils/ptr"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
)

const (
	// StorageLowWatermark is the fraction of allocated storage below which
	// free space triggers a scale-up.
	StorageLowWatermark = 0.2

	// StorageHighWatermark is the fraction of allocated storage above which
	// free space triggers a scale-down.
	StorageHighWatermark = 0.8

	// IOPSHighWatermark is the fraction of provisioned IOPS above which
	// the load triggers a scale-up.
	IOPSHighWatermark = 0.7

	// IOPSLowWatermark is the fraction of provisioned IOPS below which
	// the load triggers a scale-down.
	IOPSLowWatermark = 0.3
)

// Outcome tells whether the engine had enough telemetry to evaluate.
type Outcome string

const (
	// OutcomeNoData means no free storage datapoint was available and
	// nothing was evaluated.
	OutcomeNoData Outcome = "NoData"

	// OutcomeEvaluated means both dimensions were evaluated.
	OutcomeEvaluated Outcome = "Evaluated"
)

// Evaluation is the result of running the engine on one snapshot.
type Evaluation struct {
	Outcome  Outcome
	Decision apiv1.ScalingDecision
}

// Decide evaluates both dimensions independently and combines the results.
// Without a free storage datapoint nothing is evaluated, for either dimension.
func Decide(
	telemetry apiv1.TelemetrySnapshot,
	state apiv1.ResourceState,
	limits apiv1.PolicyLimits,
) Evaluation {
	if !telemetry.HasStorageData() {
		return Evaluation{Outcome: OutcomeNoData}
	}

	return Evaluation{
		Outcome: OutcomeEvaluated,
		Decision: apiv1.ScalingDecision{
			StorageChange: EvaluateStorage(telemetry.FreeStorageGB(), state.AllocatedStorageGB, limits),
			IOPSChange:    EvaluateIOPS(telemetry.TotalIOPS(), state.ProvisionedIOPS, limits),
		},
	}
}

// EvaluateStorage decides whether the allocated storage must grow, shrink
// or stay, given the free space in GB. It returns nil when no change is needed.
func EvaluateStorage(freeSpaceGB float64, currentGB int32, limits apiv1.PolicyLimits) *apiv1.StorageChange {
	lowThreshold := float64(currentGB) * StorageLowWatermark
	highThreshold := float64(currentGB) * StorageHighWatermark

	newGB, changed := step(stepInput{
		current:   currentGB,
		minimum:   limits.MinStorageGB,
		maximum:   limits.MaxStorageGB,
		step:      limits.StorageStepGB,
		clampUp:   limits.ClampScaleUp,
		scaleUp:   freeSpaceGB < lowThreshold,
		scaleDown: freeSpaceGB > highThreshold,
	})
	if !changed {
		return nil
	}

	return &apiv1.StorageChange{FromGB: currentGB, ToGB: newGB}
}

// EvaluateIOPS decides whether the provisioned IOPS must grow, shrink or
// stay, given the total average IOPS. It returns nil when no change is needed.
func EvaluateIOPS(totalIOPS float64, currentIOPS int32, limits apiv1.PolicyLimits) *apiv1.IOPSChange {
	highThreshold := float64(currentIOPS) * IOPSHighWatermark
	lowThreshold := float64(currentIOPS) * IOPSLowWatermark

	newIOPS, changed := step(stepInput{
		current:   currentIOPS,
		minimum:   limits.MinIOPS,
		maximum:   limits.MaxIOPS,
		step:      limits.IOPSStep,
		clampUp:   limits.ClampScaleUp,
		scaleUp:   totalIOPS > highThreshold,
		scaleDown: totalIOPS < lowThreshold,
	})
	if !changed {
		return nil
	}

	return &apiv1.IOPSChange{From: currentIOPS, To: newIOPS}
}

type stepInput struct {
	current, minimum, maximum, step int32

	clampUp   bool
	scaleUp   bool
	scaleDown bool
}

// step moves current by one step in the triggered direction. Scale-up wins
// over scale-down. Scale-up is only bounded by the maximum when clampUp is
// set; scale-down never goes below the minimum.
func step(in stepInput) (int32, bool) {
	switch {
	case in.scaleUp && in.current < in.maximum:
		next := in.current + in.step
		if in.clampUp && next > in.maximum {
			next = in.maximum
		}
		return next, next != in.current

	case in.scaleDown && in.current > in.minimum:
		next := max(in.minimum, in.current-in.step)
		return next, next != in.current
	}

	return in.current, false
}

// NewChangeRequest merges the decision into one modification request.
func NewChangeRequest(decision apiv1.ScalingDecision) apiv1.ChangeRequest {
	request := apiv1.ChangeRequest{ApplyImmediately: true}
	if decision.StorageChange != nil {
		request.NewStorageGB = ptr.To(decision.StorageChange.ToGB)
	}
	if decision.IOPSChange != nil {
		request.NewIOPS = ptr.To(decision.IOPSChange.To)
	}
	return request
}

// StorageChangeMessage is the notification text for a storage change.
func StorageChangeMessage(instanceID string, change *apiv1.StorageChange) string {
	return fmt.Sprintf("Scaling %s RDS %s storage from %d GB to %d GB.",
		change.Direction(), instanceID, change.FromGB, change.ToGB)
}

// IOPSChangeMessage is the notification text for an IOPS change.
func IOPSChangeMessage(instanceID string, change *apiv1.IOPSChange) string {
	return fmt.Sprintf("Scaling %s RDS %s IOPS from %d to %d.",
		change.Direction(), instanceID, change.From, change.To)
}
