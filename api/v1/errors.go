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

package v1

import "errors"

var (
	// ErrConfigUnavailable is returned when the policy limits are missing
	// or invalid. It aborts the invocation.
	ErrConfigUnavailable = errors.New("policy limits unavailable")

	// ErrResourceNotFound is returned when the target instance is unknown.
	ErrResourceNotFound = errors.New("database instance not found")

	// ErrProvisionerBusy is returned when a modification is already in flight.
	ErrProvisionerBusy = errors.New("a modification is already in progress")

	// ErrProvisionerRejected is returned when the provisioner refuses the
	// requested values.
	ErrProvisionerRejected = errors.New("modification rejected")

	// ErrNotifierFailure wraps failures to publish a notification. It never
	// aborts an invocation.
	ErrNotifierFailure = errors.New("notification failed")
)
