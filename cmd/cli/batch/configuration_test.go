package batch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/taskrun/cmd/cli/batch"
)

func TestSanitizeAppliesDefaults(testInstance *testing.T) {
	sanitized := batch.CommandConfiguration{}.Sanitize()

	require.Equal(testInstance, batch.DefaultCommandConfiguration(), sanitized)
}

func TestSanitizeKeepsExplicitValues(testInstance *testing.T) {
	configuration := batch.CommandConfiguration{
		MaxConcurrency:    4,
		WorkerPoolSize:    8,
		HeartbeatInterval: "2s",
		PollInterval:      "250ms",
		RetryEnabled:      true,
		RetryMaxAttempts:  5,
	}

	require.Equal(testInstance, configuration, configuration.Sanitize())
}

func TestIntervalParsingFallsBackOnInvalidValues(testInstance *testing.T) {
	testCases := []struct {
		name              string
		heartbeatInterval string
		pollInterval      string
		expectedHeartbeat time.Duration
		expectedPoll      time.Duration
	}{
		{
			name:              "valid_intervals",
			heartbeatInterval: "3s",
			pollInterval:      "100ms",
			expectedHeartbeat: 3 * time.Second,
			expectedPoll:      100 * time.Millisecond,
		},
		{
			name:              "invalid_intervals",
			heartbeatInterval: "soon",
			pollInterval:      "-5s",
			expectedHeartbeat: 10 * time.Second,
			expectedPoll:      time.Second,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			configuration := batch.CommandConfiguration{
				HeartbeatInterval: testCase.heartbeatInterval,
				PollInterval:      testCase.pollInterval,
			}

			require.Equal(testInstance, testCase.expectedHeartbeat, configuration.HeartbeatIntervalDuration())
			require.Equal(testInstance, testCase.expectedPoll, configuration.PollIntervalDuration())
		})
	}
}
