package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fastRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestAggregateResultsAllTasksSucceed(testInstance *testing.T) {
	taskRunner := New(Config{})
	for _, taskCase := range []struct {
		name  string
		value any
	}{
		{name: "alpha", value: 1},
		{name: "beta", value: "two"},
		{name: "gamma", value: 3.0},
	} {
		taskValue := taskCase.value
		_, registrationError := taskRunner.AddTask(
			TaskFunc(func(_ context.Context) (any, error) { return taskValue, nil }),
			WithTaskName(taskCase.name),
		)
		require.NoError(testInstance, registrationError)
	}

	state, runError := taskRunner.AggregateResults(context.Background())
	require.NoError(testInstance, runError)
	require.Len(testInstance, state.Completed, 3)
	require.Len(testInstance, state.Started, 3)
	require.Empty(testInstance, state.Errors)
	require.Empty(testInstance, state.TimedOut)
	require.Equal(testInstance, 1, state.Results["alpha"])
	require.Equal(testInstance, "two", state.Results["beta"])
	require.Equal(testInstance, 3.0, state.Results["gamma"])
}

func TestAggregateResultsMixedOutcomes(testInstance *testing.T) {
	taskRunner := New(Config{})
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) { return "ok", nil }),
		WithTaskName("succeeds"),
	)
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) { return nil, errors.New("broken input") }),
		WithTaskName("fails"),
	)

	state, runError := taskRunner.AggregateResults(context.Background())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, []string{"succeeds"}, state.Completed)
	require.Equal(testInstance, "ok", state.Results["succeeds"])
	require.Equal(testInstance, "broken input", state.Errors["fails"])
	require.NotContains(testInstance, state.Results, "fails")
	require.Len(testInstance, state.Started, 2)
}

func TestAggregateResultsRetriesBeforeTerminalError(testInstance *testing.T) {
	taskRunner := New(Config{
		RetryEnabled: true,
		RetryPolicy:  fastRetryPolicy(),
	})
	attemptCount := 0
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) {
			attemptCount++
			return nil, errors.New("always fails")
		}),
		WithTaskName("stubborn"),
	)

	state, runError := taskRunner.AggregateResults(context.Background())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 3, attemptCount)
	require.Len(testInstance, state.Retries, 2)
	require.Equal(testInstance, 2, state.Retries[0].Attempt)
	require.Equal(testInstance, 3, state.Retries[1].Attempt)
	require.Equal(testInstance, "always fails", state.Retries[0].LastError)
	require.Equal(testInstance, "always fails", state.Errors["stubborn"])
	require.Empty(testInstance, state.Completed)
}

func TestAggregateResultsRetrySucceedsMidway(testInstance *testing.T) {
	taskRunner := New(Config{
		RetryEnabled: true,
		RetryPolicy:  fastRetryPolicy(),
	})
	attemptCount := 0
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) {
			attemptCount++
			if attemptCount < 2 {
				return nil, errors.New("transient")
			}
			return "recovered", nil
		}),
		WithTaskName("flaky"),
	)

	state, runError := taskRunner.AggregateResults(context.Background())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, "recovered", state.Results["flaky"])
	require.Len(testInstance, state.Retries, 1)
	require.Empty(testInstance, state.Errors)
}

func TestConcurrencyNeverExceedsLimiter(testInstance *testing.T) {
	const concurrencyLimit = 2
	taskRunner := New(Config{MaxConcurrency: concurrencyLimit})

	var trackingMutex sync.Mutex
	runningCount := 0
	observedMaximum := 0
	for taskIndex := 0; taskIndex < 6; taskIndex++ {
		taskRunner.MustAddTask(TaskFunc(func(_ context.Context) (any, error) {
			trackingMutex.Lock()
			runningCount++
			if runningCount > observedMaximum {
				observedMaximum = runningCount
			}
			trackingMutex.Unlock()
			time.Sleep(20 * time.Millisecond)
			trackingMutex.Lock()
			runningCount--
			trackingMutex.Unlock()
			return nil, nil
		}))
	}

	_, runError := taskRunner.AggregateResults(context.Background())
	require.NoError(testInstance, runError)
	require.LessOrEqual(testInstance, observedMaximum, concurrencyLimit)
	require.Greater(testInstance, observedMaximum, 0)
}

func TestRunAsCompletedEmitsOneStartAndOneTerminalPerTask(testInstance *testing.T) {
	taskRunner := New(Config{})
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) { return 1, nil }),
		WithTaskName("first"),
	)
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) { return nil, errors.New("boom") }),
		WithTaskName("second"),
	)

	startCounts := make(map[string]int)
	terminalCounts := make(map[string]int)
	var lastKindPerTask = make(map[string]MessageKind)
	for message := range taskRunner.RunAsCompleted(context.Background()) {
		lastKindPerTask[message.TaskName] = message.Kind
		switch message.Kind {
		case MessageKindTaskStart:
			startCounts[message.TaskName]++
		case MessageKindTaskComplete, MessageKindTaskError:
			terminalCounts[message.TaskName]++
		}
	}

	for _, taskName := range []string{"first", "second"} {
		require.Equal(testInstance, 1, startCounts[taskName])
		require.Equal(testInstance, 1, terminalCounts[taskName])
		require.True(testInstance, Message{Kind: lastKindPerTask[taskName]}.Terminal())
	}
}

func TestRunWithCallbacksStreamsContextsAndAppliesOverrides(testInstance *testing.T) {
	globalStartCount := 0
	taskRunner := New(Config{
		Callbacks: map[MessageKind]Callback{
			MessageKindTaskStart: func(callbackContext CallbackContext) error {
				globalStartCount++
				return defaultTaskStartCallback(callbackContext)
			},
		},
	})
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) { return "plain", nil }),
		WithTaskName("plain"),
	)
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) { return "special", nil }),
		WithTaskName("special"),
		WithTaskConfig(TaskConfig{
			Callbacks: map[MessageKind]Callback{
				MessageKindTaskComplete: func(callbackContext CallbackContext) error {
					callbackContext.State.Custom["special_result"] = callbackContext.Message.Result
					return nil
				},
			},
		}),
	)

	var finalState *SharedState
	observedKinds := 0
	for callbackContext := range taskRunner.RunWithCallbacks(context.Background()) {
		finalState = callbackContext.State
		observedKinds++
	}

	require.NotNil(testInstance, finalState)
	require.GreaterOrEqual(testInstance, observedKinds, 4)
	require.Equal(testInstance, 2, globalStartCount)
	require.Equal(testInstance, "plain", finalState.Results["plain"])
	require.Equal(testInstance, "special", finalState.Custom["special_result"])
	require.NotContains(testInstance, finalState.Results, "special")
}

func TestRunnerRejectsSecondRun(testInstance *testing.T) {
	taskRunner := New(Config{})
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) { return nil, nil }),
		WithTaskName("only"),
	)

	_, firstRunError := taskRunner.AggregateResults(context.Background())
	require.NoError(testInstance, firstRunError)

	_, secondRunError := taskRunner.AggregateResults(context.Background())
	require.ErrorIs(testInstance, secondRunError, ErrRunConsumed)

	_, lateRegistrationError := taskRunner.AddTask(TaskFunc(func(_ context.Context) (any, error) { return nil, nil }))
	require.ErrorIs(testInstance, lateRegistrationError, ErrRunConsumed)

	drainedMessages := 0
	for range taskRunner.RunAsCompleted(context.Background()) {
		drainedMessages++
	}
	require.Zero(testInstance, drainedMessages)
}

func TestRunnerUsesCallerSuppliedSharedState(testInstance *testing.T) {
	callerState := &SharedState{Custom: map[string]any{"seed": true}}
	taskRunner := New(Config{SharedState: callerState})
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) { return "value", nil }),
		WithTaskName("seeded"),
	)

	state, runError := taskRunner.AggregateResults(context.Background())
	require.NoError(testInstance, runError)
	require.Same(testInstance, callerState, state)
	require.Equal(testInstance, true, state.Custom["seed"])
	require.Equal(testInstance, "value", state.Results["seeded"])
}

func TestRunnerExecutesBlockingCallablesThroughPool(testInstance *testing.T) {
	taskRunner := New(Config{WorkerPoolSize: 2})
	taskRunner.MustAddTask(
		BlockingTaskFunc(func() (any, error) { return 41 + 1, nil }),
		WithTaskName("blocking"),
	)

	state, runError := taskRunner.AggregateResults(context.Background())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 42, state.Results["blocking"])
}

func TestRunnerConvertsCallablePanicToTaskError(testInstance *testing.T) {
	taskRunner := New(Config{})
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) { panic("exploded") }),
		WithTaskName("panicky"),
	)

	state, runError := taskRunner.AggregateResults(context.Background())
	require.NoError(testInstance, runError)
	require.Contains(testInstance, state.Errors["panicky"], "panic")
	require.Contains(testInstance, state.Errors["panicky"], "exploded")
}

func TestRunnerTruncatesLongErrorDescriptions(testInstance *testing.T) {
	taskRunner := New(Config{})
	taskRunner.MustAddTask(
		TaskFunc(func(_ context.Context) (any, error) {
			return nil, errors.New(strings.Repeat("x", 2*errorTruncationLimitConstant))
		}),
		WithTaskName("verbose_failure"),
	)

	state, runError := taskRunner.AggregateResults(context.Background())
	require.NoError(testInstance, runError)
	require.Len(testInstance, state.Errors["verbose_failure"], errorTruncationLimitConstant)
}
