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
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/smithy-go"
	"github.com/cloudnative-pg/machinery/pkg/log"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
)

// RDSAPI is the subset of the RDS client used here
type RDSAPI interface {
	DescribeDBInstances(
		ctx context.Context,
		params *rds.DescribeDBInstancesInput,
		optFns ...func(*rds.Options),
	) (*rds.DescribeDBInstancesOutput, error)
	ModifyDBInstance(
		ctx context.Context,
		params *rds.ModifyDBInstanceInput,
		optFns ...func(*rds.Options),
	) (*rds.ModifyDBInstanceOutput, error)
}

// rejectedErrorCodes are the RDS error codes meaning the requested values
// are not acceptable for the instance.
var rejectedErrorCodes = map[string]struct{}{
	"InvalidParameterValue":                {},
	"InvalidParameterCombination":          {},
	"StorageQuotaExceeded":                 {},
	"StorageTypeNotSupported":              {},
	"ProvisionedIopsNotAvailableInAZFault": {},
}

// Instance inspects and modifies an RDS database instance
type Instance struct {
	client RDSAPI
}

// NewInstance creates an Instance
func NewInstance(client RDSAPI) *Instance {
	return &Instance{client: client}
}

// GetResourceState returns the allocated storage and provisioned IOPS of
// the instance. IOPSReported is false when RDS reports no IOPS.
func (i *Instance) GetResourceState(ctx context.Context, instanceID string) (apiv1.ResourceState, error) {
	output, err := i.client.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(instanceID),
	})
	if err != nil {
		return apiv1.ResourceState{}, translateError(instanceID, err)
	}
	if len(output.DBInstances) == 0 {
		return apiv1.ResourceState{}, fmt.Errorf("%w: %s", apiv1.ErrResourceNotFound, instanceID)
	}

	instance := output.DBInstances[0]
	state := apiv1.ResourceState{
		AllocatedStorageGB: aws.ToInt32(instance.AllocatedStorage),
	}
	if instance.Iops != nil {
		state.ProvisionedIOPS = *instance.Iops
		state.IOPSReported = true
	}

	return state, nil
}

// ApplyChange submits one modification request carrying every change.
func (i *Instance) ApplyChange(ctx context.Context, instanceID string, request apiv1.ChangeRequest) error {
	if request.IsEmpty() {
		return nil
	}

	input := &rds.ModifyDBInstanceInput{
		DBInstanceIdentifier: aws.String(instanceID),
		AllocatedStorage:     request.NewStorageGB,
		Iops:                 request.NewIOPS,
		ApplyImmediately:     aws.Bool(request.ApplyImmediately),
	}

	if _, err := i.client.ModifyDBInstance(ctx, input); err != nil {
		return translateError(instanceID, err)
	}

	log.FromContext(ctx).Debug("modification request accepted",
		"newStorageGB", request.NewStorageGB,
		"newIOPS", request.NewIOPS)
	return nil
}

// translateError maps RDS faults to the autoscaler error taxonomy
func translateError(instanceID string, err error) error {
	var notFound *types.DBInstanceNotFoundFault
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s: %w", apiv1.ErrResourceNotFound, instanceID, err)
	}

	var invalidState *types.InvalidDBInstanceStateFault
	if errors.As(err, &invalidState) {
		return fmt.Errorf("%w: %s: %w", apiv1.ErrProvisionerBusy, instanceID, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := rejectedErrorCodes[apiErr.ErrorCode()]; ok {
			return fmt.Errorf("%w: %s: %w", apiv1.ErrProvisionerRejected, instanceID, err)
		}
	}

	return fmt.Errorf("RDS request for %s failed: %w", instanceID, err)
}
