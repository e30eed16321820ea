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
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PolicyLimits", func() {
	It("accepts the default limits", func() {
		Expect(DefaultPolicyLimits().Validate()).To(Succeed())
	})

	It("accepts min equal to max", func() {
		limits := DefaultPolicyLimits()
		limits.MinStorageGB = 100
		Expect(limits.Validate()).To(Succeed())
	})

	It("rejects min greater than max", func() {
		limits := DefaultPolicyLimits()
		limits.MinIOPS = 20000

		err := limits.Validate()
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, ErrConfigUnavailable)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("minIOPS (20000) is greater than maxIOPS (12000)"))
	})

	It("reports every violation", func() {
		limits := PolicyLimits{
			MinStorageGB:  200,
			MaxStorageGB:  100,
			StorageStepGB: 0,
			MinIOPS:       3000,
			MaxIOPS:       12000,
			IOPSStep:      -1,
		}

		err := limits.Validate()
		Expect(errors.Is(err, ErrConfigUnavailable)).To(BeTrue())
		Expect(err.Error()).To(SatisfyAll(
			ContainSubstring("minStorageGB (200) is greater than maxStorageGB (100)"),
			ContainSubstring("storageStepGB must be positive, got 0"),
			ContainSubstring("iopsStep must be positive, got -1"),
		))
	})
})

var _ = Describe("TelemetrySnapshot", func() {
	It("has no storage data when the free storage datapoint is absent", func() {
		snapshot := TelemetrySnapshot{AverageReadIOPS: 10}
		Expect(snapshot.HasStorageData()).To(BeFalse())
		Expect(snapshot.FreeStorageGB()).To(BeZero())
	})

	It("converts free bytes into GB", func() {
		free := float64(5 * BytesPerGB)
		snapshot := TelemetrySnapshot{FreeStorageBytes: &free}
		Expect(snapshot.HasStorageData()).To(BeTrue())
		Expect(snapshot.FreeStorageGB()).To(BeNumerically("==", 5))
	})

	It("sums read and write IOPS", func() {
		snapshot := TelemetrySnapshot{AverageReadIOPS: 2000, AverageWriteIOPS: 1500.5}
		Expect(snapshot.TotalIOPS()).To(BeNumerically("~", 3500.5))
	})
})

var _ = Describe("ScalingDecision", func() {
	It("is empty without changes", func() {
		Expect(ScalingDecision{}.IsEmpty()).To(BeTrue())
	})

	It("reports the direction of each change", func() {
		Expect(StorageChange{FromGB: 60, ToGB: 70}.Direction()).To(Equal(DirectionUp))
		Expect(IOPSChange{From: 5000, To: 4000}.Direction()).To(Equal(DirectionDown))
	})
})

var _ = Describe("SummaryBody", func() {
	It("reports free space, allocation and IOPS", func() {
		free := float64(5 * BytesPerGB)
		body := SummaryBody(
			TelemetrySnapshot{FreeStorageBytes: &free},
			ResourceState{AllocatedStorageGB: 60, ProvisionedIOPS: 3000},
		)
		Expect(body).To(Equal("Free space: 5.00 GB, Allocated Storage: 60 GB, Provisioned IOPS: 3000"))
	})

	It("rounds GB figures to two decimals", func() {
		Expect(RoundGB(12.3456)).To(BeNumerically("~", 12.35, 1e-9))
	})
})
