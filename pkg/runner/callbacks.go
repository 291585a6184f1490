package runner

import "time"

const errorTruncationLimitConstant = 500

// CallbackContext is handed to callbacks and streamed by RunWithCallbacks:
// the message that fired plus the shared state as of that message.
type CallbackContext struct {
	Message Message
	State   *SharedState
}

// Callback reacts to one lifecycle message. Callbacks run sequentially on the
// dispatcher goroutine, so they may mutate State without locking. A returned
// error is logged and the run continues.
type Callback func(callbackContext CallbackContext) error

// defaultCallbacks is the built-in handler set that maintains SharedState.
func defaultCallbacks() map[MessageKind]Callback {
	return map[MessageKind]Callback{
		MessageKindTaskStart:    defaultTaskStartCallback,
		MessageKindTaskComplete: defaultTaskCompleteCallback,
		MessageKindTaskError:    defaultTaskErrorCallback,
		MessageKindRetry:        defaultRetryCallback,
		MessageKindTimeout:      defaultTimeoutCallback,
	}
}

func defaultTaskStartCallback(callbackContext CallbackContext) error {
	callbackContext.State.Started = append(callbackContext.State.Started, callbackContext.Message.TaskName)
	return nil
}

func defaultTaskCompleteCallback(callbackContext CallbackContext) error {
	state := callbackContext.State
	state.Results[callbackContext.Message.TaskName] = callbackContext.Message.Result
	state.Completed = append(state.Completed, callbackContext.Message.TaskName)
	return nil
}

func defaultTaskErrorCallback(callbackContext CallbackContext) error {
	state := callbackContext.State
	state.Errors[callbackContext.Message.TaskName] = truncateErrorText(callbackContext.Message.Err)
	return nil
}

func defaultRetryCallback(callbackContext CallbackContext) error {
	callbackContext.State.Retries = append(callbackContext.State.Retries, RetryRecord{
		TaskName:  callbackContext.Message.TaskName,
		Attempt:   callbackContext.Message.RetryAttempt,
		LastError: truncateErrorText(callbackContext.Message.Err),
		Timestamp: time.Now(),
	})
	return nil
}

// defaultTimeoutCallback records the breach under Errors and lists the task
// in TimedOut once even when several attempts time out.
func defaultTimeoutCallback(callbackContext CallbackContext) error {
	state := callbackContext.State
	state.Errors[callbackContext.Message.TaskName] = truncateErrorText(callbackContext.Message.Err)
	for _, recordedName := range state.TimedOut {
		if recordedName == callbackContext.Message.TaskName {
			return nil
		}
	}
	state.TimedOut = append(state.TimedOut, callbackContext.Message.TaskName)
	return nil
}

func truncateErrorText(failure error) string {
	if failure == nil {
		return ""
	}
	failureText := failure.Error()
	if len(failureText) > errorTruncationLimitConstant {
		return failureText[:errorTruncationLimitConstant]
	}
	return failureText
}
