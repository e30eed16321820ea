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

// Package configuration contains the process configuration of the storage
// autoscaler, read through viper from flags, environment variables
// prefixed with AUTOSCALER_ and an optional YAML file.
package configuration

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	apiv1 "github.com/cloudnative-pg/storage-autoscaler/api/v1"
)

// EnvPrefix is the prefix of every environment variable read
const EnvPrefix = "AUTOSCALER"

const (
	// LimitsSourceStatic reads the policy limits from this configuration
	LimitsSourceStatic = "static"
	// LimitsSourceSSM reads the policy limits from SSM Parameter Store
	LimitsSourceSSM = "ssm"
)

const (
	defaultInstanceID     = "dynamicload-db"
	defaultSSMPrefix      = "/storage-autoscaler"
	defaultSchedule       = "0 */5 * * * *"
	defaultMetricsAddress = ":9187"
	defaultRetryAttempts  = 3
)

// ErrInvalidConfiguration is returned when the configuration cannot be used
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config is the whole autoscaler configuration
type Config struct {
	// InstanceID is the identifier of the database instance to scale
	InstanceID string `mapstructure:"instance_id"`
	// Region is the AWS region, empty to use the SDK resolution chain
	Region string `mapstructure:"region"`
	// TopicARN is the notification topic, empty to disable notifications
	TopicARN string `mapstructure:"topic_arn"`
	// DryRun evaluates without notifying or modifying the instance
	DryRun bool `mapstructure:"dry_run"`

	Limits    LimitsConfig    `mapstructure:"limits"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Serve     ServeConfig     `mapstructure:"serve"`
	AWS       AWSConfig       `mapstructure:"aws"`
}

// LimitsConfig selects where the policy limits are read from. The static
// values are only used with the static source.
type LimitsConfig struct {
	Source       string `mapstructure:"source"`
	SSMPrefix    string `mapstructure:"ssm_prefix"`
	ClampScaleUp bool   `mapstructure:"clamp_scale_up"`

	MinStorageGB  int32 `mapstructure:"min_storage_gb"`
	MaxStorageGB  int32 `mapstructure:"max_storage_gb"`
	StorageStepGB int32 `mapstructure:"storage_step_gb"`
	MinIOPS       int32 `mapstructure:"min_iops"`
	MaxIOPS       int32 `mapstructure:"max_iops"`
	IOPSStep      int32 `mapstructure:"iops_step"`
}

// TelemetryConfig is the telemetry query window
type TelemetryConfig struct {
	Window time.Duration `mapstructure:"window"`
	Period time.Duration `mapstructure:"period"`
}

// ServeConfig configures the long running scheduler
type ServeConfig struct {
	// Schedule is a cron expression with a leading seconds field
	Schedule       string `mapstructure:"schedule"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

// AWSConfig configures the AWS clients
type AWSConfig struct {
	RetryMaxAttempts int `mapstructure:"retry_max_attempts"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	limits := apiv1.DefaultPolicyLimits()
	return &Config{
		InstanceID: defaultInstanceID,
		Limits: LimitsConfig{
			Source:        LimitsSourceStatic,
			SSMPrefix:     defaultSSMPrefix,
			MinStorageGB:  limits.MinStorageGB,
			MaxStorageGB:  limits.MaxStorageGB,
			StorageStepGB: limits.StorageStepGB,
			MinIOPS:       limits.MinIOPS,
			MaxIOPS:       limits.MaxIOPS,
			IOPSStep:      limits.IOPSStep,
		},
		Telemetry: TelemetryConfig{
			Window: 10 * time.Minute,
			Period: 300 * time.Second,
		},
		Serve: ServeConfig{
			Schedule:       defaultSchedule,
			MetricsAddress: defaultMetricsAddress,
		},
		AWS: AWSConfig{
			RetryMaxAttempts: defaultRetryAttempts,
		},
	}
}

// New creates a viper instance with the defaults registered and the
// environment bound. Nested keys map to variables like
// AUTOSCALER_LIMITS_MAX_STORAGE_GB.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers default values with viper
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("instance_id", defaults.InstanceID)
	v.SetDefault("region", defaults.Region)
	v.SetDefault("topic_arn", defaults.TopicARN)
	v.SetDefault("dry_run", defaults.DryRun)

	v.SetDefault("limits.source", defaults.Limits.Source)
	v.SetDefault("limits.ssm_prefix", defaults.Limits.SSMPrefix)
	v.SetDefault("limits.clamp_scale_up", defaults.Limits.ClampScaleUp)
	v.SetDefault("limits.min_storage_gb", defaults.Limits.MinStorageGB)
	v.SetDefault("limits.max_storage_gb", defaults.Limits.MaxStorageGB)
	v.SetDefault("limits.storage_step_gb", defaults.Limits.StorageStepGB)
	v.SetDefault("limits.min_iops", defaults.Limits.MinIOPS)
	v.SetDefault("limits.max_iops", defaults.Limits.MaxIOPS)
	v.SetDefault("limits.iops_step", defaults.Limits.IOPSStep)

	v.SetDefault("telemetry.window", defaults.Telemetry.Window)
	v.SetDefault("telemetry.period", defaults.Telemetry.Period)

	v.SetDefault("serve.schedule", defaults.Serve.Schedule)
	v.SetDefault("serve.metrics_address", defaults.Serve.MetricsAddress)

	v.SetDefault("aws.retry_max_attempts", defaults.AWS.RetryMaxAttempts)
}

// ReadFile merges the given YAML file into v. An empty path is ignored.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("while reading configuration file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from viper into a Config and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every problem of the configuration at once
func (c *Config) Validate() error {
	var errs error

	if c.InstanceID == "" {
		errs = multierr.Append(errs, errors.New("instance_id must be set"))
	}

	if !slices.Contains([]string{LimitsSourceStatic, LimitsSourceSSM}, c.Limits.Source) {
		errs = multierr.Append(errs, fmt.Errorf("limits.source must be %q or %q, got %q",
			LimitsSourceStatic, LimitsSourceSSM, c.Limits.Source))
	}
	if c.Limits.Source == LimitsSourceStatic {
		if err := c.PolicyLimits().Validate(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	// CloudWatch only accepts periods that are multiples of a minute
	if c.Telemetry.Period < time.Minute || c.Telemetry.Period%time.Minute != 0 {
		errs = multierr.Append(errs, fmt.Errorf("telemetry.period must be a positive multiple of 60s, got %s",
			c.Telemetry.Period))
	}
	if c.Telemetry.Window < c.Telemetry.Period {
		errs = multierr.Append(errs, fmt.Errorf("telemetry.window (%s) is shorter than telemetry.period (%s)",
			c.Telemetry.Window, c.Telemetry.Period))
	}

	if c.AWS.RetryMaxAttempts < 1 {
		errs = multierr.Append(errs, fmt.Errorf("aws.retry_max_attempts must be positive, got %d",
			c.AWS.RetryMaxAttempts))
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, errs)
	}
	return nil
}

// PolicyLimits returns the static policy limits
func (c *Config) PolicyLimits() apiv1.PolicyLimits {
	return apiv1.PolicyLimits{
		MinStorageGB:  c.Limits.MinStorageGB,
		MaxStorageGB:  c.Limits.MaxStorageGB,
		StorageStepGB: c.Limits.StorageStepGB,
		MinIOPS:       c.Limits.MinIOPS,
		MaxIOPS:       c.Limits.MaxIOPS,
		IOPSStep:      c.Limits.IOPSStep,
		ClampScaleUp:  c.Limits.ClampScaleUp,
	}
}

// ParameterPrefix is the Parameter Store path holding the limits of the
// configured instance
func (c *Config) ParameterPrefix() string {
	return strings.TrimSuffix(c.Limits.SSMPrefix, "/") + "/" + c.InstanceID + "/"
}

// StaticLimits serves fixed policy limits
type StaticLimits struct {
	Limits apiv1.PolicyLimits
}

// GetLimits returns the configured limits
func (s StaticLimits) GetLimits(context.Context) (apiv1.PolicyLimits, error) {
	return s.Limits, nil
}
