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
	"time"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
)

const (
	// DefaultWindow is the trailing window telemetry is averaged over.
	DefaultWindow = 10 * time.Minute

	// DefaultPeriod is the granularity of the telemetry samples.
	DefaultPeriod = 300 * time.Second

	// NotificationSubject is the subject of every published notification.
	NotificationSubject = "RDS Auto Scaling Alert"
)

// LimitsSource provides the policy limits. It fails with
// apiv1.ErrConfigUnavailable when a value is missing or not an integer.
type LimitsSource interface {
	GetLimits(ctx context.Context) (apiv1.PolicyLimits, error)
}

// TelemetrySource provides the averaged telemetry for an instance. An empty
// window is reported through the snapshot, not as an error.
type TelemetrySource interface {
	GetTelemetry(ctx context.Context, instanceID string, window, period time.Duration) (apiv1.TelemetrySnapshot, error)
}

// ResourceInspector reads the live configuration of an instance. It fails
// with apiv1.ErrResourceNotFound when the instance is unknown.
type ResourceInspector interface {
	GetResourceState(ctx context.Context, instanceID string) (apiv1.ResourceState, error)
}

// Provisioner submits a modification request. It fails with
// apiv1.ErrProvisionerBusy or apiv1.ErrProvisionerRejected.
type Provisioner interface {
	ApplyChange(ctx context.Context, instanceID string, request apiv1.ChangeRequest) error
}

// Notifier publishes human readable messages, best effort.
type Notifier interface {
	Publish(ctx context.Context, subject, message string) error
}

// Recorder observes the invocations, typically to export metrics.
type Recorder interface {
	ObserveEvaluation(instanceID string, telemetry apiv1.TelemetrySnapshot, state apiv1.ResourceState)
	RecordChange(instanceID string, dimension string, direction apiv1.Direction)
	RecordOutcome(instanceID string, status apiv1.Status)
}

// Dimension names used when recording changes.
const (
	DimensionStorage = "storage"
	DimensionIOPS    = "iops"
)

type noopRecorder struct{}

func (noopRecorder) ObserveEvaluation(string, apiv1.TelemetrySnapshot, apiv1.ResourceState) {}
func (noopRecorder) RecordChange(string, string, apiv1.Direction) {}
func (noopRecorder) RecordOutcome(string, apiv1.Status) {}
