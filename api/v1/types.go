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

// Package v1 contains the data model shared by the storage autoscaler:
// the policy limits, the telemetry snapshot, the live resource state and
// the scaling decision produced for a single invocation.
package v1

import (
	"fmt"
	"math"
)

const (
	// BytesPerGB is the divisor used to convert free storage bytes into GB.
	BytesPerGB = 1024 * 1024 * 1024
)

// PolicyLimits are the bounds and step sizes for both scaled dimensions.
// They are read fresh at the beginning of every invocation.
type PolicyLimits struct {
	// MinStorageGB is the floor for allocated storage
	MinStorageGB int32 `json:"minStorageGB"`
	// MaxStorageGB is the ceiling for allocated storage
	MaxStorageGB int32 `json:"maxStorageGB"`
	// StorageStepGB is how much storage is added or removed per action
	StorageStepGB int32 `json:"storageStepGB"`

	// MinIOPS is the floor for provisioned IOPS
	MinIOPS int32 `json:"minIOPS"`
	// MaxIOPS is the ceiling for provisioned IOPS
	MaxIOPS int32 `json:"maxIOPS"`
	// IOPSStep is how many IOPS are added or removed per action
	IOPSStep int32 `json:"iopsStep"`

	// ClampScaleUp caps scale-up proposals at the configured maximum.
	// When false a scale-up may exceed the maximum by up to one step.
	ClampScaleUp bool `json:"clampScaleUp,omitempty"`
}

// TelemetrySnapshot holds the averaged utilization signals over the
// trailing window.
type TelemetrySnapshot struct {
	// FreeStorageBytes is nil when the window contained no datapoint
	FreeStorageBytes *float64 `json:"freeStorageBytes,omitempty"`
	// AverageReadIOPS is 0 when the window contained no datapoint
	AverageReadIOPS float64 `json:"averageReadIOPS"`
	// AverageWriteIOPS is 0 when the window contained no datapoint
	AverageWriteIOPS float64 `json:"averageWriteIOPS"`
}

// HasStorageData reports whether a free storage datapoint was available.
func (t TelemetrySnapshot) HasStorageData() bool {
	return t.FreeStorageBytes != nil
}

// FreeStorageGB returns the free storage converted to GB, or 0 when
// no datapoint is available.
func (t TelemetrySnapshot) FreeStorageGB() float64 {
	if t.FreeStorageBytes == nil {
		return 0
	}
	return *t.FreeStorageBytes / BytesPerGB
}

// TotalIOPS returns read plus write IOPS.
func (t TelemetrySnapshot) TotalIOPS() float64 {
	return t.AverageReadIOPS + t.AverageWriteIOPS
}

// ResourceState is the live configuration of the target instance.
type ResourceState struct {
	AllocatedStorageGB int32 `json:"allocatedStorageGB"`
	ProvisionedIOPS    int32 `json:"provisionedIOPS"`
	// IOPSReported is false when the provider did not report provisioned
	// IOPS and ProvisionedIOPS was defaulted to the policy minimum
	IOPSReported bool `json:"iopsReported"`
}

// Direction is the direction of a proposed change.
type Direction string

const (
	// DirectionUp means the value grows
	DirectionUp Direction = "up"
	// DirectionDown means the value shrinks
	DirectionDown Direction = "down"
)

// StorageChange is a proposed allocated storage change.
type StorageChange struct {
	FromGB int32 `json:"fromGB"`
	ToGB   int32 `json:"toGB"`
}

// Direction returns whether the change grows or shrinks the storage.
func (c StorageChange) Direction() Direction {
	if c.ToGB > c.FromGB {
		return DirectionUp
	}
	return DirectionDown
}

// IOPSChange is a proposed provisioned IOPS change.
type IOPSChange struct {
	From int32 `json:"from"`
	To   int32 `json:"to"`
}

// Direction returns whether the change grows or shrinks the IOPS.
func (c IOPSChange) Direction() Direction {
	if c.To > c.From {
		return DirectionUp
	}
	return DirectionDown
}

// ScalingDecision carries at most one change per dimension.
type ScalingDecision struct {
	StorageChange *StorageChange `json:"storageChange,omitempty"`
	IOPSChange    *IOPSChange    `json:"iopsChange,omitempty"`
}

// IsEmpty is true when neither dimension needs a change.
func (d ScalingDecision) IsEmpty() bool {
	return d.StorageChange == nil && d.IOPSChange == nil
}

// ChangeRequest is the combined modification request submitted to the
// provisioner. Unset fields are left untouched.
type ChangeRequest struct {
	NewStorageGB     *int32 `json:"newStorageGB,omitempty"`
	NewIOPS          *int32 `json:"newIOPS,omitempty"`
	ApplyImmediately bool   `json:"applyImmediately"`
}

// IsEmpty is true when the request carries no change.
func (r ChangeRequest) IsEmpty() bool {
	return r.NewStorageGB == nil && r.NewIOPS == nil
}

// Status is the outcome of an invocation.
type Status string

const (
	// StatusOK means the invocation evaluated the telemetry
	StatusOK Status = "ok"
	// StatusNoData means no storage datapoint was available
	StatusNoData Status = "no-data"
	// StatusError means the invocation failed
	StatusError Status = "error"
)

// Result is the externally observed output of an invocation.
type Result struct {
	Status Status `json:"status"`
	Body   string `json:"body"`

	Decision  *ScalingDecision `json:"decision,omitempty"`
	Submitted bool             `json:"submitted"`
	DryRun    bool             `json:"dryRun,omitempty"`
}

// SummaryBody renders the body reported by an evaluated invocation.
func SummaryBody(telemetry TelemetrySnapshot, state ResourceState) string {
	return fmt.Sprintf("Free space: %.2f GB, Allocated Storage: %d GB, Provisioned IOPS: %d",
		telemetry.FreeStorageGB(), state.AllocatedStorageGB, state.ProvisionedIOPS)
}

// RoundGB rounds a GB figure to two decimals, as it is displayed.
func RoundGB(gb float64) float64 {
	return math.Round(gb*100) / 100
}
