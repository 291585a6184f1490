package batch

import (
	"strings"
	"time"
)

const (
	defaultMaxConcurrencyConstant    = 10
	defaultWorkerPoolSizeConstant    = 16
	defaultHeartbeatIntervalConstant = "10s"
	defaultPollIntervalConstant      = "1s"
	defaultRetryMaxAttemptsConstant  = 3
)

// CommandConfiguration captures configuration values for batch.
type CommandConfiguration struct {
	MaxConcurrency    int    `mapstructure:"max_concurrency"`
	WorkerPoolSize    int    `mapstructure:"worker_pool_size"`
	HeartbeatInterval string `mapstructure:"heartbeat_interval"`
	PollInterval      string `mapstructure:"poll_interval"`
	RetryEnabled      bool   `mapstructure:"retry_enabled"`
	RetryMaxAttempts  int    `mapstructure:"retry_max_attempts"`
}

// DefaultCommandConfiguration provides default batch command settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		MaxConcurrency:    defaultMaxConcurrencyConstant,
		WorkerPoolSize:    defaultWorkerPoolSizeConstant,
		HeartbeatInterval: defaultHeartbeatIntervalConstant,
		PollInterval:      defaultPollIntervalConstant,
		RetryEnabled:      false,
		RetryMaxAttempts:  defaultRetryMaxAttemptsConstant,
	}
}

// Sanitize normalizes configuration values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	if sanitized.MaxConcurrency < 1 {
		sanitized.MaxConcurrency = defaultMaxConcurrencyConstant
	}
	if sanitized.WorkerPoolSize < 1 {
		sanitized.WorkerPoolSize = defaultWorkerPoolSizeConstant
	}
	if len(strings.TrimSpace(sanitized.HeartbeatInterval)) == 0 {
		sanitized.HeartbeatInterval = defaultHeartbeatIntervalConstant
	}
	if len(strings.TrimSpace(sanitized.PollInterval)) == 0 {
		sanitized.PollInterval = defaultPollIntervalConstant
	}
	if sanitized.RetryMaxAttempts < 1 {
		sanitized.RetryMaxAttempts = defaultRetryMaxAttemptsConstant
	}
	return sanitized
}

// HeartbeatIntervalDuration parses the configured heartbeat interval, falling
// back to the default when the value is not a valid duration.
func (configuration CommandConfiguration) HeartbeatIntervalDuration() time.Duration {
	return parseDurationOrDefault(configuration.HeartbeatInterval, defaultHeartbeatIntervalConstant)
}

// PollIntervalDuration parses the configured poll interval, falling back to
// the default when the value is not a valid duration.
func (configuration CommandConfiguration) PollIntervalDuration() time.Duration {
	return parseDurationOrDefault(configuration.PollInterval, defaultPollIntervalConstant)
}

func parseDurationOrDefault(rawValue string, fallbackValue string) time.Duration {
	parsedValue, parseError := time.ParseDuration(strings.TrimSpace(rawValue))
	if parseError == nil && parsedValue > 0 {
		return parsedValue
	}
	fallbackDuration, fallbackError := time.ParseDuration(fallbackValue)
	if fallbackError != nil {
		return 0
	}
	return fallbackDuration
}
