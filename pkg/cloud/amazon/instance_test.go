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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/smithy-go"
	"k8s.io/utils/ptr"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeRDS struct {
	instances   []types.DBInstance
	describeErr error
	modifyErr   error
	modified    []*rds.ModifyDBInstanceInput
}

func (f *fakeRDS) DescribeDBInstances(
	_ context.Context,
	_ *rds.DescribeDBInstancesInput,
	_ ...func(*rds.Options),
) (*rds.DescribeDBInstancesOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &rds.DescribeDBInstancesOutput{DBInstances: f.instances}, nil
}

func (f *fakeRDS) ModifyDBInstance(
	_ context.Context,
	params *rds.ModifyDBInstanceInput,
	_ ...func(*rds.Options),
) (*rds.ModifyDBInstanceOutput, error) {
	f.modified = append(f.modified, params)
	if f.modifyErr != nil {
		return nil, f.modifyErr
	}
	return &rds.ModifyDBInstanceOutput{}, nil
}

var _ = Describe("Instance", func() {
	var (
		ctx      context.Context
		client   *fakeRDS
		instance *Instance
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &fakeRDS{}
		instance = NewInstance(client)
	})

	Context("GetResourceState", func() {
		It("reports the allocated storage and IOPS", func() {
			client.instances = []types.DBInstance{{
				AllocatedStorage: aws.Int32(60),
				Iops:             aws.Int32(4000),
			}}

			state, err := instance.GetResourceState(ctx, "dynamicload-db")
			Expect(err).ToNot(HaveOccurred())
			Expect(state).To(Equal(apiv1.ResourceState{
				AllocatedStorageGB: 60,
				ProvisionedIOPS:    4000,
				IOPSReported:       true,
			}))
		})

		It("flags an instance without provisioned IOPS", func() {
			client.instances = []types.DBInstance{{AllocatedStorage: aws.Int32(60)}}

			state, err := instance.GetResourceState(ctx, "dynamicload-db")
			Expect(err).ToNot(HaveOccurred())
			Expect(state.IOPSReported).To(BeFalse())
			Expect(state.ProvisionedIOPS).To(BeZero())
		})

		It("fails when no instance is returned", func() {
			_, err := instance.GetResourceState(ctx, "dynamicload-db")
			Expect(err).To(MatchError(apiv1.ErrResourceNotFound))
		})

		It("translates the not found fault", func() {
			client.describeErr = &types.DBInstanceNotFoundFault{Message: aws.String("DBInstance dynamicload-db not found")}

			_, err := instance.GetResourceState(ctx, "dynamicload-db")
			Expect(err).To(MatchError(apiv1.ErrResourceNotFound))
		})
	})

	Context("ApplyChange", func() {
		It("submits a single request with every change", func() {
			err := instance.ApplyChange(ctx, "dynamicload-db", apiv1.ChangeRequest{
				NewStorageGB:     ptr.To[int32](70),
				NewIOPS:          ptr.To[int32](5000),
				ApplyImmediately: true,
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(client.modified).To(HaveLen(1))
			input := client.modified[0]
			Expect(aws.ToString(input.DBInstanceIdentifier)).To(Equal("dynamicload-db"))
			Expect(aws.ToInt32(input.AllocatedStorage)).To(Equal(int32(70)))
			Expect(aws.ToInt32(input.Iops)).To(Equal(int32(5000)))
			Expect(aws.ToBool(input.ApplyImmediately)).To(BeTrue())
		})

		It("leaves the unchanged dimension unset", func() {
			err := instance.ApplyChange(ctx, "dynamicload-db", apiv1.ChangeRequest{
				NewIOPS:          ptr.To[int32](2000),
				ApplyImmediately: true,
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(client.modified[0].AllocatedStorage).To(BeNil())
		})

		It("does not call RDS for an empty request", func() {
			Expect(instance.ApplyChange(ctx, "dynamicload-db", apiv1.ChangeRequest{})).To(Succeed())
			Expect(client.modified).To(BeEmpty())
		})

		DescribeTable("translates the RDS faults",
			func(fault error, expected error) {
				client.modifyErr = fault

				err := instance.ApplyChange(ctx, "dynamicload-db", apiv1.ChangeRequest{
					NewStorageGB:     ptr.To[int32](70),
					ApplyImmediately: true,
				})
				Expect(err).To(MatchError(expected))
				Expect(errors.Is(err, fault)).To(BeTrue())
			},
			Entry("modification in progress",
				&types.InvalidDBInstanceStateFault{Message: aws.String("instance is modifying")},
				apiv1.ErrProvisionerBusy),
			Entry("storage quota",
				&smithy.GenericAPIError{Code: "StorageQuotaExceeded", Message: "quota"},
				apiv1.ErrProvisionerRejected),
			Entry("invalid parameter",
				&smithy.GenericAPIError{Code: "InvalidParameterCombination", Message: "iops ratio"},
				apiv1.ErrProvisionerRejected),
		)

		It("wraps unknown failures", func() {
			client.modifyErr = errors.New("connection reset")

			err := instance.ApplyChange(ctx, "dynamicload-db", apiv1.ChangeRequest{
				NewStorageGB: ptr.To[int32](70),
			})
			Expect(err).To(MatchError(ContainSubstring("connection reset")))
			Expect(errors.Is(err, apiv1.ErrProvisionerBusy)).To(BeFalse())
			Expect(errors.Is(err, apiv1.ErrProvisionerRejected)).To(BeFalse())
		})
	})
})
