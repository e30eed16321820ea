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

package configuration_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
	"github.com/cloudnative-pg/storage-autoscaler/pkg/configuration"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func setEnv(name, value string) {
	Expect(os.Setenv(name, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, name)
}

var _ = Describe("Load", func() {
	It("falls back to the defaults", func() {
		cfg, err := configuration.Load(configuration.New())
		Expect(err).ToNot(HaveOccurred())

		Expect(cfg.InstanceID).To(Equal("dynamicload-db"))
		Expect(cfg.Limits.Source).To(Equal(configuration.LimitsSourceStatic))
		Expect(cfg.PolicyLimits()).To(Equal(apiv1.DefaultPolicyLimits()))
		Expect(cfg.Telemetry.Window).To(Equal(10 * time.Minute))
		Expect(cfg.Telemetry.Period).To(Equal(300 * time.Second))
		Expect(cfg.Serve.Schedule).To(Equal("0 */5 * * * *"))
		Expect(cfg.AWS.RetryMaxAttempts).To(Equal(3))
		Expect(cfg.DryRun).To(BeFalse())
	})

	It("reads the environment", func() {
		setEnv("AUTOSCALER_INSTANCE_ID", "orders-db")
		setEnv("AUTOSCALER_LIMITS_MAX_STORAGE_GB", "500")
		setEnv("AUTOSCALER_LIMITS_CLAMP_SCALE_UP", "true")
		setEnv("AUTOSCALER_TELEMETRY_WINDOW", "15m")

		cfg, err := configuration.Load(configuration.New())
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.InstanceID).To(Equal("orders-db"))
		Expect(cfg.Limits.MaxStorageGB).To(Equal(int32(500)))
		Expect(cfg.Limits.ClampScaleUp).To(BeTrue())
		Expect(cfg.PolicyLimits().ClampScaleUp).To(BeTrue())
		Expect(cfg.Telemetry.Window).To(Equal(15 * time.Minute))
	})

	It("merges a YAML file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "autoscaler.yaml")
		Expect(os.WriteFile(path, []byte(`
instance_id: billing-db
topic_arn: arn:aws:sns:eu-west-1:123456789012:alerts
limits:
  source: ssm
  ssm_prefix: /platform/autoscaler/
telemetry:
  period: 1m
`), 0o600)).To(Succeed())

		v := configuration.New()
		Expect(configuration.ReadFile(v, path)).To(Succeed())
		cfg, err := configuration.Load(v)
		Expect(err).ToNot(HaveOccurred())

		Expect(cfg.InstanceID).To(Equal("billing-db"))
		Expect(cfg.TopicARN).To(Equal("arn:aws:sns:eu-west-1:123456789012:alerts"))
		Expect(cfg.Limits.Source).To(Equal(configuration.LimitsSourceSSM))
		Expect(cfg.ParameterPrefix()).To(Equal("/platform/autoscaler/billing-db/"))
		Expect(cfg.Telemetry.Period).To(Equal(time.Minute))
	})

	It("ignores an empty file path", func() {
		Expect(configuration.ReadFile(configuration.New(), "")).To(Succeed())
	})

	It("fails on a missing file", func() {
		Expect(configuration.ReadFile(configuration.New(), filepath.Join(GinkgoT().TempDir(), "missing.yaml"))).ToNot(Succeed())
	})

	It("reports every invalid setting", func() {
		v := configuration.New()
		v.Set("instance_id", "")
		v.Set("limits.source", "vault")
		v.Set("telemetry.period", "90s")
		v.Set("aws.retry_max_attempts", 0)

		_, err := configuration.Load(v)
		Expect(err).To(MatchError(configuration.ErrInvalidConfiguration))
		Expect(err.Error()).To(SatisfyAll(
			ContainSubstring("instance_id must be set"),
			ContainSubstring(`limits.source must be "static" or "ssm", got "vault"`),
			ContainSubstring("telemetry.period must be a positive multiple of 60s"),
			ContainSubstring("aws.retry_max_attempts must be positive"),
		))
	})

	It("validates the static limits", func() {
		v := configuration.New()
		v.Set("limits.min_iops", 20000)

		_, err := configuration.Load(v)
		Expect(err).To(MatchError(configuration.ErrInvalidConfiguration))
		Expect(err).To(MatchError(apiv1.ErrConfigUnavailable))
	})

	It("skips the static limits when reading them from Parameter Store", func() {
		v := configuration.New()
		v.Set("limits.source", configuration.LimitsSourceSSM)
		v.Set("limits.storage_step_gb", 0)

		_, err := configuration.Load(v)
		Expect(err).ToNot(HaveOccurred())
	})

	It("rejects a window shorter than the period", func() {
		v := configuration.New()
		v.Set("telemetry.window", "2m")

		_, err := configuration.Load(v)
		Expect(err).To(MatchError(ContainSubstring("is shorter than telemetry.period")))
	})
})

var _ = Describe("StaticLimits", func() {
	It("returns the configured limits", func() {
		limits := apiv1.DefaultPolicyLimits()
		limits.ClampScaleUp = true

		got, err := configuration.StaticLimits{Limits: limits}.GetLimits(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(limits))
	})
})
