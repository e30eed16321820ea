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
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/cloudnative-pg/machinery/pkg/log"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
)

const (
	rdsNamespace          = "AWS/RDS"
	instanceDimensionName = "DBInstanceIdentifier"

	metricFreeStorageSpace = "FreeStorageSpace"
	metricReadIOPS         = "ReadIOPS"
	metricWriteIOPS        = "WriteIOPS"
)

// CloudWatchAPI is the subset of the CloudWatch client used here
type CloudWatchAPI interface {
	GetMetricStatistics(
		ctx context.Context,
		params *cloudwatch.GetMetricStatisticsInput,
		optFns ...func(*cloudwatch.Options),
	) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// TelemetrySource reads the instance telemetry from CloudWatch
type TelemetrySource struct {
	client CloudWatchAPI
	clock  clock.Clock
}

// NewTelemetrySource creates a TelemetrySource
func NewTelemetrySource(client CloudWatchAPI, clk clock.Clock) *TelemetrySource {
	if clk == nil {
		clk = clock.NewClock()
	}
	return &TelemetrySource{client: client, clock: clk}
}

// GetTelemetry returns the average free storage and read/write IOPS over
// the trailing window. A metric without datapoints leaves the free storage
// unset, or the IOPS at zero.
func (s *TelemetrySource) GetTelemetry(
	ctx context.Context,
	instanceID string,
	window, period time.Duration,
) (apiv1.TelemetrySnapshot, error) {
	end := s.clock.Now().UTC()
	start := end.Add(-window)

	freeStorage, err := s.average(ctx, instanceID, metricFreeStorageSpace, types.StandardUnitBytes, start, end, period)
	if err != nil {
		return apiv1.TelemetrySnapshot{}, err
	}

	readIOPS, err := s.average(ctx, instanceID, metricReadIOPS, "", start, end, period)
	if err != nil {
		return apiv1.TelemetrySnapshot{}, err
	}

	writeIOPS, err := s.average(ctx, instanceID, metricWriteIOPS, "", start, end, period)
	if err != nil {
		return apiv1.TelemetrySnapshot{}, err
	}

	snapshot := apiv1.TelemetrySnapshot{
		FreeStorageBytes: freeStorage,
	}
	if readIOPS != nil {
		snapshot.AverageReadIOPS = *readIOPS
	}
	if writeIOPS != nil {
		snapshot.AverageWriteIOPS = *writeIOPS
	}

	return snapshot, nil
}

// average returns the mean of the datapoint averages, or nil when the
// window contains no datapoint.
func (s *TelemetrySource) average(
	ctx context.Context,
	instanceID string,
	metricName string,
	unit types.StandardUnit,
	start, end time.Time,
	period time.Duration,
) (*float64, error) {
	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(rdsNamespace),
		MetricName: aws.String(metricName),
		Dimensions: []types.Dimension{
			{Name: aws.String(instanceDimensionName), Value: aws.String(instanceID)},
		},
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(int32(period.Seconds())),
		Statistics: []types.Statistic{types.StatisticAverage},
	}
	if unit != "" {
		input.Unit = unit
	}

	output, err := s.client.GetMetricStatistics(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("while reading metric %s: %w", metricName, err)
	}

	var (
		sum   float64
		count int
	)
	for _, datapoint := range output.Datapoints {
		if datapoint.Average == nil {
			continue
		}
		sum += *datapoint.Average
		count++
	}

	if count == 0 {
		log.FromContext(ctx).Debug("no datapoints in window", "metric", metricName)
		return nil, nil
	}

	avg := sum / float64(count)
	return &avg, nil
}
