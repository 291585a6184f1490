package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrRunConsumed is returned when a runner that already ran is run again.
var ErrRunConsumed = errors.New("runner: run already consumed")

// Runner registers tasks and executes them once through one of the run entry
// points. A Runner is single-shot; build a new one for another batch.
type Runner struct {
	configuration Config
	registry      *taskRegistry
	state         *SharedState
	consumed      atomic.Bool
}

// New builds a Runner from the configuration, applying defaults for unset
// fields.
func New(configuration Config) *Runner {
	sanitizedConfiguration := configuration.sanitized()
	state := sanitizedConfiguration.SharedState
	if state == nil {
		state = NewSharedState()
	} else {
		state.ensureDefaults()
	}
	return &Runner{
		configuration: sanitizedConfiguration,
		registry:      newTaskRegistry(),
		state:         state,
	}
}

// AddTask registers a callable and returns the unique name assigned to it.
// Accepted callable shapes are TaskFunc (context-aware) and BlockingTaskFunc;
// anything else is rejected. Registering twice under the same base name
// yields "name", "name_1", "name_2" deterministically.
func (taskRunner *Runner) AddTask(callable any, options ...TaskOption) (string, error) {
	if taskRunner.consumed.Load() {
		return "", ErrRunConsumed
	}
	assignedName, registrationError := taskRunner.registry.register(callable, options)
	if registrationError != nil {
		return "", fmt.Errorf("runner.add_task: %w", registrationError)
	}
	return assignedName, nil
}

// MustAddTask registers a callable and panics on rejection. Intended for
// static task lists built at startup.
func (taskRunner *Runner) MustAddTask(callable any, options ...TaskOption) string {
	assignedName, registrationError := taskRunner.AddTask(callable, options...)
	if registrationError != nil {
		panic(registrationError)
	}
	return assignedName
}

// run starts the engine once. Subsequent calls fail with ErrRunConsumed.
func (taskRunner *Runner) run(executionContext context.Context) (<-chan Message, error) {
	if !taskRunner.consumed.CompareAndSwap(false, true) {
		return nil, ErrRunConsumed
	}
	engine := newExecutionEngine(taskRunner.configuration, len(taskRunner.registry.entries))
	return engine.start(executionContext, taskRunner.registry.entries), nil
}

func (taskRunner *Runner) taskCallbackOverrides() map[string]map[MessageKind]Callback {
	overrides := make(map[string]map[MessageKind]Callback)
	for _, entry := range taskRunner.registry.entries {
		if entry.configuration != nil && len(entry.configuration.Callbacks) > 0 {
			overrides[entry.name] = entry.configuration.Callbacks
		}
	}
	return overrides
}

// RunAsCompleted starts the batch and returns the raw ordered message
// channel. No callbacks run; the caller owns consumption. The channel closes
// after every task has emitted its terminal message.
func (taskRunner *Runner) RunAsCompleted(executionContext context.Context) <-chan Message {
	messageChannel, runError := taskRunner.run(executionContext)
	if runError != nil {
		taskRunner.configuration.Logger.Error("run_rejected", zap.Error(runError))
		closedChannel := make(chan Message)
		close(closedChannel)
		return closedChannel
	}
	return messageChannel
}

// RunWithCallbacks starts the batch and dispatches every message through the
// callback chain, streaming the resulting contexts to the returned channel.
// The channel closes once all messages are dispatched.
func (taskRunner *Runner) RunWithCallbacks(executionContext context.Context) <-chan CallbackContext {
	contextChannel := make(chan CallbackContext)
	messageChannel, runError := taskRunner.run(executionContext)
	if runError != nil {
		taskRunner.configuration.Logger.Error("run_rejected", zap.Error(runError))
		close(contextChannel)
		return contextChannel
	}
	messageDispatcher := newDispatcher(taskRunner.configuration, taskRunner.taskCallbackOverrides(), taskRunner.state)
	go func() {
		defer close(contextChannel)
		messageDispatcher.consume(messageChannel, func(callbackContext CallbackContext) {
			contextChannel <- callbackContext
		})
	}()
	return contextChannel
}

// AggregateResults runs the batch to completion, dispatching callbacks
// internally, and returns the shared state. Task failures live inside the
// state; the error return reports orchestration misuse only.
func (taskRunner *Runner) AggregateResults(executionContext context.Context) (*SharedState, error) {
	messageChannel, runError := taskRunner.run(executionContext)
	if runError != nil {
		return nil, runError
	}
	messageDispatcher := newDispatcher(taskRunner.configuration, taskRunner.taskCallbackOverrides(), taskRunner.state)
	messageDispatcher.consume(messageChannel, nil)
	return taskRunner.state, nil
}
