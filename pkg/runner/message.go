package runner

import "time"

// MessageKind identifies the lifecycle event a Message describes.
type MessageKind string

// Supported message kinds.
const (
	// MessageKindTaskStart announces that a task's first attempt is about to run.
	MessageKindTaskStart MessageKind = "task_start"
	// MessageKindHeartbeat is a periodic liveness signal for a running task.
	MessageKindHeartbeat MessageKind = "heartbeat"
	// MessageKindRetry announces an upcoming attempt beyond the first, carrying the prior error.
	MessageKindRetry MessageKind = "retry"
	// MessageKindTimeout reports that one attempt breached its soft or hard deadline.
	MessageKindTimeout MessageKind = "timeout"
	// MessageKindTaskComplete is the terminal message of a successful task.
	MessageKindTaskComplete MessageKind = "task_complete"
	// MessageKindTaskError is the terminal message of a failed task.
	MessageKindTaskError MessageKind = "task_error"
)

// Message is one lifecycle event produced by a task's execution or heartbeat
// unit. Every registered task produces exactly one MessageKindTaskStart and
// exactly one terminal message (MessageKindTaskComplete or
// MessageKindTaskError). Message order is preserved within a task; no order
// is guaranteed across distinct tasks.
type Message struct {
	Kind         MessageKind
	TaskName     string
	Result       any
	Err          error
	ElapsedTime  time.Duration
	RetryAttempt int
	Metadata     map[string]any
}

// Terminal reports whether the message ends its task's lifecycle.
func (message Message) Terminal() bool {
	return message.Kind == MessageKindTaskComplete || message.Kind == MessageKindTaskError
}
