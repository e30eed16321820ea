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
	"errors"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Preview", func() {
	var (
		ctx         context.Context
		inspector   *fakeInspector
		telemetry   *fakeTelemetry
		provisioner *fakeProvisioner
		notifier    *fakeNotifier
		recorder    *fakeRecorder
		r           *Reconciler
	)

	BeforeEach(func() {
		ctx = context.Background()
		inspector = &fakeInspector{state: apiv1.ResourceState{AllocatedStorageGB: 60}}
		telemetry = &fakeTelemetry{snapshot: apiv1.TelemetrySnapshot{
			FreeStorageBytes: gigabytes(5),
			AverageReadIOPS:  2000,
			AverageWriteIOPS: 1000,
		}}
		provisioner = &fakeProvisioner{}
		notifier = &fakeNotifier{}
		recorder = &fakeRecorder{}

		r = &Reconciler{
			InstanceID:  "dynamicload-db",
			Limits:      &fakeLimits{limits: apiv1.DefaultPolicyLimits()},
			Telemetry:   telemetry,
			Inspector:   inspector,
			Provisioner: provisioner,
			Notifier:    notifier,
			Recorder:    recorder,
		}
	})

	It("reports the inputs and the proposed changes", func() {
		preview, err := r.Preview(ctx)
		Expect(err).ToNot(HaveOccurred())

		Expect(preview.InstanceID).To(Equal("dynamicload-db"))
		Expect(preview.Limits).To(Equal(apiv1.DefaultPolicyLimits()))
		Expect(preview.State).To(Equal(&apiv1.ResourceState{AllocatedStorageGB: 60}))
		Expect(preview.Result.Status).To(Equal(apiv1.StatusOK))
		Expect(preview.Result.DryRun).To(BeTrue())
		Expect(preview.Result.Body).To(Equal("Free space: 5.00 GB, Allocated Storage: 60 GB, Provisioned IOPS: 3000"))
		Expect(preview.Result.Decision.StorageChange).To(Equal(&apiv1.StorageChange{FromGB: 60, ToGB: 70}))
		Expect(preview.Result.Decision.IOPSChange).To(Equal(&apiv1.IOPSChange{From: 3000, To: 4000}))
	})

	It("has no side effects", func() {
		_, err := r.Preview(ctx)
		Expect(err).ToNot(HaveOccurred())

		Expect(provisioner.requests).To(BeEmpty())
		Expect(notifier.messages).To(BeEmpty())
		Expect(recorder.evaluations).To(BeZero())
		Expect(recorder.changes).To(BeEmpty())
		Expect(recorder.outcomes).To(BeEmpty())
	})

	It("does not inspect the instance without storage telemetry", func() {
		telemetry.snapshot.FreeStorageBytes = nil

		preview, err := r.Preview(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(preview.Result.Status).To(Equal(apiv1.StatusNoData))
		Expect(preview.State).To(BeNil())
		Expect(inspector.calls).To(BeZero())
	})

	It("returns the collaborator failures", func() {
		inspector.err = apiv1.ErrResourceNotFound

		_, err := r.Preview(ctx)
		Expect(errors.Is(err, apiv1.ErrResourceNotFound)).To(BeTrue())
		Expect(notifier.messages).To(BeEmpty())
	})
})
