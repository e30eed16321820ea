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

import (
	"fmt"

	"go.uber.org/multierr"
)

// DefaultPolicyLimits returns the limits used when nothing else is configured.
func DefaultPolicyLimits() PolicyLimits {
	return PolicyLimits{
		MinStorageGB:  50,
		MaxStorageGB:  100,
		StorageStepGB: 10,
		MinIOPS:       3000,
		MaxIOPS:       12000,
		IOPSStep:      1000,
	}
}

// Validate checks that min <= max and step > 0 for each dimension.
// Every violation is reported, wrapped in ErrConfigUnavailable.
func (p PolicyLimits) Validate() error {
	var errs error

	if p.MinStorageGB < 0 {
		errs = multierr.Append(errs, fmt.Errorf("minStorageGB must not be negative, got %d", p.MinStorageGB))
	}
	if p.MinStorageGB > p.MaxStorageGB {
		errs = multierr.Append(errs, fmt.Errorf("minStorageGB (%d) is greater than maxStorageGB (%d)",
			p.MinStorageGB, p.MaxStorageGB))
	}
	if p.StorageStepGB <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("storageStepGB must be positive, got %d", p.StorageStepGB))
	}

	if p.MinIOPS < 0 {
		errs = multierr.Append(errs, fmt.Errorf("minIOPS must not be negative, got %d", p.MinIOPS))
	}
	if p.MinIOPS > p.MaxIOPS {
		errs = multierr.Append(errs, fmt.Errorf("minIOPS (%d) is greater than maxIOPS (%d)",
			p.MinIOPS, p.MaxIOPS))
	}
	if p.IOPSStep <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("iopsStep must be positive, got %d", p.IOPSStep))
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrConfigUnavailable, errs)
	}
	return nil
}
