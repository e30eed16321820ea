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

// Package amazon contains the adapters binding the autoscaler to AWS:
// CloudWatch for telemetry, RDS for inspecting and modifying the instance,
// SNS for notifications and SSM Parameter Store for the policy limits.
package amazon

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// DefaultRetryMaxAttempts bounds the attempts of every AWS call.
const DefaultRetryMaxAttempts = 3

// LoadConfig loads the shared AWS configuration. The retry policy of the
// collaborators is owned by the SDK retryer configured here.
func LoadConfig(ctx context.Context, region string, maxAttempts int) (aws.Config, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultRetryMaxAttempts
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRetryMaxAttempts(maxAttempts),
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("while loading the AWS configuration: %w", err)
	}
	return cfg, nil
}
