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

// Package metrics exports the autoscaler evaluations as Prometheus metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
)

const (
	namespace = "storage_autoscaler"
)

// Metrics contains all the autoscaler Prometheus metrics
type Metrics struct {
	// Telemetry of the last evaluation
	FreeStorageGB *prometheus.GaugeVec
	TotalIOPS     *prometheus.GaugeVec

	// Live configuration of the last evaluation
	AllocatedStorageGB *prometheus.GaugeVec
	ProvisionedIOPS    *prometheus.GaugeVec
	IOPSReported       *prometheus.GaugeVec

	// Outcomes
	ChangesTotal     *prometheus.CounterVec
	InvocationsTotal *prometheus.CounterVec
}

// NewMetrics creates the autoscaler metrics
func NewMetrics() *Metrics {
	labels := []string{"instance"}

	return &Metrics{
		FreeStorageGB: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "free_storage_gb",
				Help:      "Average free storage in GB over the trailing window",
			},
			labels,
		),
		TotalIOPS: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "total_iops",
				Help:      "Average read plus write IOPS over the trailing window",
			},
			labels,
		),
		AllocatedStorageGB: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "allocated_storage_gb",
				Help:      "Allocated storage of the instance in GB",
			},
			labels,
		),
		ProvisionedIOPS: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provisioned_iops",
				Help:      "Provisioned IOPS of the instance",
			},
			labels,
		),
		IOPSReported: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "iops_reported",
				Help:      "1 if the instance reported its provisioned IOPS, 0 if the policy minimum was assumed",
			},
			labels,
		),
		ChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "changes_total",
				Help:      "Total number of proposed scaling changes",
			},
			append(labels, "dimension", "direction"),
		),
		InvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Total number of invocations by result status",
			},
			append(labels, "status"),
		),
	}
}

// Register registers all metrics with the provided registry
func (m *Metrics) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.FreeStorageGB,
		m.TotalIOPS,
		m.AllocatedStorageGB,
		m.ProvisionedIOPS,
		m.IOPSReported,
		m.ChangesTotal,
		m.InvocationsTotal,
	}

	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveEvaluation updates the gauges from the evaluated inputs
func (m *Metrics) ObserveEvaluation(
	instanceID string,
	telemetry apiv1.TelemetrySnapshot,
	state apiv1.ResourceState,
) {
	m.FreeStorageGB.WithLabelValues(instanceID).Set(telemetry.FreeStorageGB())
	m.TotalIOPS.WithLabelValues(instanceID).Set(telemetry.TotalIOPS())
	m.AllocatedStorageGB.WithLabelValues(instanceID).Set(float64(state.AllocatedStorageGB))
	m.ProvisionedIOPS.WithLabelValues(instanceID).Set(float64(state.ProvisionedIOPS))

	reported := 0.0
	if state.IOPSReported {
		reported = 1
	}
	m.IOPSReported.WithLabelValues(instanceID).Set(reported)
}

// RecordChange counts a proposed change
func (m *Metrics) RecordChange(instanceID string, dimension string, direction apiv1.Direction) {
	m.ChangesTotal.WithLabelValues(instanceID, dimension, string(direction)).Inc()
}

// RecordOutcome counts an invocation by status
func (m *Metrics) RecordOutcome(instanceID string, status apiv1.Status) {
	m.InvocationsTotal.WithLabelValues(instanceID, string(status)).Inc()
}
