package runner

import (
	"context"
	"fmt"
	"time"
)

// TimeoutKind distinguishes the deadline an attempt breached.
type TimeoutKind string

const (
	// TimeoutKindSoft marks a breach of the (possibly heartbeat-extended)
	// soft deadline.
	TimeoutKindSoft TimeoutKind = "soft"
	// TimeoutKindHard marks a breach of the absolute ceiling.
	TimeoutKindHard TimeoutKind = "hard"
)

// TimeoutError reports a deadline breach for one attempt of a task.
type TimeoutError struct {
	TaskName string
	Attempt  int
	Kind     TimeoutKind
	Limit    time.Duration
	Elapsed  time.Duration
}

// Error describes the breach.
func (timeoutError *TimeoutError) Error() string {
	return fmt.Sprintf(
		"task %q attempt %d exceeded %s timeout of %s after %s",
		timeoutError.TaskName,
		timeoutError.Attempt,
		timeoutError.Kind,
		timeoutError.Limit,
		timeoutError.Elapsed,
	)
}

// attemptResult carries a callable's outcome out of its goroutine.
type attemptResult struct {
	value any
	err   error
}

// guardFixed waits for the attempt result under a single fixed deadline.
// A zero limit waits indefinitely (bounded only by the parent context).
func guardFixed(
	executionContext context.Context,
	resultChannel <-chan attemptResult,
	taskName string,
	attemptNumber int,
	limit time.Duration,
	startedAt time.Time,
) (any, error) {
	var deadlineChannel <-chan time.Time
	if limit > 0 {
		deadlineTimer := time.NewTimer(limit)
		defer deadlineTimer.Stop()
		deadlineChannel = deadlineTimer.C
	}
	select {
	case result := <-resultChannel:
		return result.value, result.err
	case <-deadlineChannel:
		return nil, &TimeoutError{
			TaskName: taskName,
			Attempt:  attemptNumber,
			Kind:     TimeoutKindHard,
			Limit:    limit,
			Elapsed:  time.Since(startedAt),
		}
	case <-executionContext.Done():
		return nil, executionContext.Err()
	}
}

// guardExtendable polls the attempt against two clocks: the soft deadline
// measured from the heartbeat's last-seen instant and the hard ceiling
// measured from the attempt start. Whichever breaches first wins.
func guardExtendable(
	executionContext context.Context,
	resultChannel <-chan attemptResult,
	liveness *heartbeatClock,
	taskName string,
	attemptNumber int,
	softLimit time.Duration,
	hardLimit time.Duration,
	pollInterval time.Duration,
	startedAt time.Time,
) (any, error) {
	pollTicker := time.NewTicker(pollInterval)
	defer pollTicker.Stop()
	for {
		select {
		case result := <-resultChannel:
			return result.value, result.err
		case <-pollTicker.C:
			elapsedSinceStart := time.Since(startedAt)
			if hardLimit > 0 && elapsedSinceStart > hardLimit {
				return nil, &TimeoutError{
					TaskName: taskName,
					Attempt:  attemptNumber,
					Kind:     TimeoutKindHard,
					Limit:    hardLimit,
					Elapsed:  elapsedSinceStart,
				}
			}
			if softLimit > 0 && liveness.sinceLastSeen() > softLimit {
				return nil, &TimeoutError{
					TaskName: taskName,
					Attempt:  attemptNumber,
					Kind:     TimeoutKindSoft,
					Limit:    softLimit,
					Elapsed:  elapsedSinceStart,
				}
			}
		case <-executionContext.Done():
			return nil, executionContext.Err()
		}
	}
}
