package runner

import "time"

// RetryRecord captures one retry announcement: the attempt about to run and
// the error that provoked it.
type RetryRecord struct {
	TaskName  string
	Attempt   int
	LastError string
	Timestamp time.Time
}

// SharedState aggregates task outcomes across a run. The sequential callback
// dispatcher is its only writer, so no locking is required while a run is in
// flight; readers must wait for the run to finish.
type SharedState struct {
	// Results maps task name to the value returned by its successful attempt.
	Results map[string]any
	// Errors maps task name to a truncated description of its terminal failure.
	Errors map[string]string
	// Completed lists task names that finished successfully, in completion order.
	Completed []string
	// Started lists task names in the order their first attempts began.
	Started []string
	// Retries records every retry announcement.
	Retries []RetryRecord
	// TimedOut lists task names that breached a deadline at least once.
	TimedOut []string
	// Custom is scratch space for user callbacks.
	Custom map[string]any
}

// NewSharedState returns a SharedState with every collection allocated.
func NewSharedState() *SharedState {
	state := &SharedState{}
	state.ensureDefaults()
	return state
}

// ensureDefaults allocates any nil collection so caller-supplied states with
// missing fields behave like fresh ones.
func (state *SharedState) ensureDefaults() {
	if state.Results == nil {
		state.Results = make(map[string]any)
	}
	if state.Errors == nil {
		state.Errors = make(map[string]string)
	}
	if state.Completed == nil {
		state.Completed = make([]string, 0)
	}
	if state.Started == nil {
		state.Started = make([]string, 0)
	}
	if state.Retries == nil {
		state.Retries = make([]RetryRecord, 0)
	}
	if state.TimedOut == nil {
		state.TimedOut = make([]string, 0)
	}
	if state.Custom == nil {
		state.Custom = make(map[string]any)
	}
}
