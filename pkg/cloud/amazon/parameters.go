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

package amazon

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/multierr"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
)

// Parameter names, relative to the configured prefix
const (
	ParameterMinStorageGB  = "min-storage-gb"
	ParameterMaxStorageGB  = "max-storage-gb"
	ParameterStorageStepGB = "storage-step-gb"
	ParameterMinIOPS       = "min-iops"
	ParameterMaxIOPS       = "max-iops"
	ParameterIOPSStep      = "iops-step"
)

// SSMAPI is the subset of the SSM client used here
type SSMAPI interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// ParameterLimits reads the policy limits from SSM Parameter Store, one
// integer parameter per limit under a common prefix.
type ParameterLimits struct {
	client SSMAPI
	prefix string

	// clampScaleUp is not stored in Parameter Store
	clampScaleUp bool
}

// NewParameterLimits creates a ParameterLimits reading below prefix
func NewParameterLimits(client SSMAPI, prefix string, clampScaleUp bool) *ParameterLimits {
	return &ParameterLimits{
		client:       client,
		prefix:       strings.TrimSuffix(prefix, "/") + "/",
		clampScaleUp: clampScaleUp,
	}
}

// GetLimits reads every limit. A missing or non integer parameter fails
// with apiv1.ErrConfigUnavailable, naming every offending parameter.
func (p *ParameterLimits) GetLimits(ctx context.Context) (apiv1.PolicyLimits, error) {
	limits := apiv1.PolicyLimits{ClampScaleUp: p.clampScaleUp}
	targets := map[string]*int32{
		ParameterMinStorageGB:  &limits.MinStorageGB,
		ParameterMaxStorageGB:  &limits.MaxStorageGB,
		ParameterStorageStepGB: &limits.StorageStepGB,
		ParameterMinIOPS:       &limits.MinIOPS,
		ParameterMaxIOPS:       &limits.MaxIOPS,
		ParameterIOPSStep:      &limits.IOPSStep,
	}

	names := make([]string, 0, len(targets))
	for _, name := range []string{
		ParameterMinStorageGB, ParameterMaxStorageGB, ParameterStorageStepGB,
		ParameterMinIOPS, ParameterMaxIOPS, ParameterIOPSStep,
	} {
		names = append(names, p.prefix+name)
	}

	output, err := p.client.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          names,
		WithDecryption: aws.Bool(false),
	})
	if err != nil {
		return apiv1.PolicyLimits{}, fmt.Errorf("%w: while reading parameters under %s: %w",
			apiv1.ErrConfigUnavailable, p.prefix, err)
	}

	found := make(map[string]string, len(output.Parameters))
	for _, parameter := range output.Parameters {
		found[aws.ToString(parameter.Name)] = aws.ToString(parameter.Value)
	}

	var errs error
	for _, fullName := range names {
		raw, ok := found[fullName]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("parameter %s is missing", fullName))
			continue
		}

		value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("parameter %s is not an integer: %q", fullName, raw))
			continue
		}

		*targets[strings.TrimPrefix(fullName, p.prefix)] = int32(value)
	}

	if errs != nil {
		return apiv1.PolicyLimits{}, fmt.Errorf("%w: %w", apiv1.ErrConfigUnavailable, errs)
	}
	return limits, nil
}
