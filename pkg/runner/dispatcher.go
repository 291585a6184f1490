package runner

import (
	"fmt"

	"go.uber.org/zap"
)

// dispatcher consumes the message channel sequentially and invokes exactly
// one callback per message: the task-level override when present, otherwise
// the runner-level callback, otherwise the built-in default.
type dispatcher struct {
	runnerCallbacks  map[MessageKind]Callback
	taskCallbacks    map[string]map[MessageKind]Callback
	builtinCallbacks map[MessageKind]Callback
	state            *SharedState
	logger           *zap.Logger
	verbose          bool
}

func newDispatcher(configuration Config, taskCallbacks map[string]map[MessageKind]Callback, state *SharedState) *dispatcher {
	builtins := defaultCallbacks()
	if configuration.DisableDefaultCallbacks {
		builtins = nil
	}
	return &dispatcher{
		runnerCallbacks:  configuration.Callbacks,
		taskCallbacks:    taskCallbacks,
		builtinCallbacks: builtins,
		state:            state,
		logger:           configuration.Logger,
		verbose:          configuration.Verbose,
	}
}

// consume drains the message channel, dispatching each message and forwarding
// the resulting CallbackContext when forward is non-nil. It returns once the
// channel closes.
func (messageDispatcher *dispatcher) consume(messageChannel <-chan Message, forward func(CallbackContext)) {
	for message := range messageChannel {
		callbackContext := CallbackContext{Message: message, State: messageDispatcher.state}
		messageDispatcher.dispatch(callbackContext)
		if forward != nil {
			forward(callbackContext)
		}
	}
}

func (messageDispatcher *dispatcher) dispatch(callbackContext CallbackContext) {
	if messageDispatcher.verbose {
		messageDispatcher.logMessage(callbackContext.Message)
	}
	selectedCallback := messageDispatcher.resolve(callbackContext.Message)
	if selectedCallback == nil {
		return
	}
	if callbackError := invokeCallback(selectedCallback, callbackContext); callbackError != nil {
		messageDispatcher.logger.Warn(
			"callback_failed",
			zap.String("task", callbackContext.Message.TaskName),
			zap.String("kind", string(callbackContext.Message.Kind)),
			zap.Error(callbackError),
		)
	}
}

func (messageDispatcher *dispatcher) resolve(message Message) Callback {
	if taskOverrides, found := messageDispatcher.taskCallbacks[message.TaskName]; found {
		if taskCallback, defined := taskOverrides[message.Kind]; defined {
			return taskCallback
		}
	}
	if runnerCallback, defined := messageDispatcher.runnerCallbacks[message.Kind]; defined {
		return runnerCallback
	}
	return messageDispatcher.builtinCallbacks[message.Kind]
}

// invokeCallback runs the callback with panic isolation so a misbehaving
// handler cannot abort the dispatch loop.
func invokeCallback(selectedCallback Callback, callbackContext CallbackContext) (callbackError error) {
	defer func() {
		if panicValue := recover(); panicValue != nil {
			callbackError = fmt.Errorf("runner.callback: panic: %v", panicValue)
		}
	}()
	return selectedCallback(callbackContext)
}

func (messageDispatcher *dispatcher) logMessage(message Message) {
	fields := []zap.Field{
		zap.String("task", message.TaskName),
		zap.Duration("elapsed", message.ElapsedTime),
	}
	switch message.Kind {
	case MessageKindTaskStart:
		messageDispatcher.logger.Info("task_start", fields...)
	case MessageKindHeartbeat:
		messageDispatcher.logger.Debug("task_heartbeat", fields...)
	case MessageKindRetry:
		fields = append(fields, zap.Int("attempt", message.RetryAttempt), zap.Error(message.Err))
		messageDispatcher.logger.Warn("task_retry", fields...)
	case MessageKindTimeout:
		fields = append(fields, zap.Int("attempt", message.RetryAttempt), zap.Error(message.Err))
		messageDispatcher.logger.Warn("task_timeout", fields...)
	case MessageKindTaskComplete:
		messageDispatcher.logger.Info("task_complete", fields...)
	case MessageKindTaskError:
		fields = append(fields, zap.Error(message.Err))
		messageDispatcher.logger.Error("task_error", fields...)
	}
}
