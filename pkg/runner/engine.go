package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tyemirov/taskrun/internal/workpool"
)

// executionEngine runs every registered task in its own goroutine under the
// shared limiter and funnels lifecycle messages into one channel.
type executionEngine struct {
	configuration  Config
	limiter        *semaphore.Weighted
	blockingPool   *workpool.Pool
	messageChannel chan Message
	waitGroup      sync.WaitGroup
}

func newExecutionEngine(configuration Config, taskCount int) *executionEngine {
	return &executionEngine{
		configuration:  configuration,
		limiter:        semaphore.NewWeighted(int64(configuration.MaxConcurrency)),
		blockingPool:   workpool.New(configuration.WorkerPoolSize, taskCount),
		messageChannel: make(chan Message, taskCount),
	}
}

// start launches one execution unit per entry plus the completion monitor,
// which closes the message channel once every unit has emitted its terminal
// message.
func (engine *executionEngine) start(executionContext context.Context, entries []taskEntry) <-chan Message {
	engine.waitGroup.Add(len(entries))
	for _, entry := range entries {
		go engine.runTask(executionContext, entry)
	}
	go func() {
		engine.waitGroup.Wait()
		engine.blockingPool.Stop()
		close(engine.messageChannel)
	}()
	return engine.messageChannel
}

func (engine *executionEngine) emit(message Message) {
	engine.messageChannel <- message
}

// runTask is the per-task execution unit: it emits exactly one task_start and
// exactly one terminal message, running the attempt loop in between. The
// heartbeat monitor is stopped and joined before the terminal message goes
// out so per-task ordering holds.
func (engine *executionEngine) runTask(executionContext context.Context, entry taskEntry) {
	defer engine.waitGroup.Done()

	settings := resolveTaskSettings(engine.configuration, entry.configuration)
	startedAt := time.Now()

	acquireError := engine.limiter.Acquire(executionContext, 1)
	engine.emit(Message{
		Kind:     MessageKindTaskStart,
		TaskName: entry.name,
		Metadata: settings.metadata,
	})
	if acquireError != nil {
		engine.emit(Message{
			Kind:        MessageKindTaskError,
			TaskName:    entry.name,
			Err:         fmt.Errorf("runner.acquire: %w", acquireError),
			ElapsedTime: time.Since(startedAt),
			Metadata:    settings.metadata,
		})
		return
	}
	limiterHeld := true
	defer func() {
		if limiterHeld {
			engine.limiter.Release(1)
		}
	}()

	livenessClock := newHeartbeatClock()
	monitor := newHeartbeatMonitor(
		entry.name,
		settings.heartbeatInterval,
		settings.heartbeatExtendsTimeout,
		livenessClock,
		settings.metadata,
		engine.emit,
	)
	monitor.start()
	defer monitor.stop()

	var taskValue any
	var attemptError error
	for attemptNumber := 1; attemptNumber <= settings.retryPolicy.MaxAttempts; attemptNumber++ {
		if attemptNumber > 1 {
			engine.emit(Message{
				Kind:         MessageKindRetry,
				TaskName:     entry.name,
				Err:          attemptError,
				RetryAttempt: attemptNumber,
				ElapsedTime:  time.Since(startedAt),
				Metadata:     settings.metadata,
			})
			engine.limiter.Release(1)
			limiterHeld = false
			if sleepError := sleepWithContext(executionContext, settings.retryPolicy.delayForAttempt(attemptNumber)); sleepError != nil {
				attemptError = sleepError
				break
			}
			if acquireError := engine.limiter.Acquire(executionContext, 1); acquireError != nil {
				attemptError = acquireError
				break
			}
			limiterHeld = true
		}

		livenessClock.refresh()
		taskValue, attemptError = engine.runAttempt(executionContext, entry, settings, livenessClock, attemptNumber)
		if attemptError == nil {
			break
		}

		var timeoutError *TimeoutError
		if errors.As(attemptError, &timeoutError) {
			engine.emit(Message{
				Kind:         MessageKindTimeout,
				TaskName:     entry.name,
				Err:          attemptError,
				RetryAttempt: attemptNumber,
				ElapsedTime:  time.Since(startedAt),
				Metadata:     settings.metadata,
			})
		}
		if executionContext.Err() != nil {
			break
		}
	}

	monitor.stop()

	if attemptError != nil {
		engine.emit(Message{
			Kind:        MessageKindTaskError,
			TaskName:    entry.name,
			Err:         attemptError,
			ElapsedTime: time.Since(startedAt),
			Metadata:    settings.metadata,
		})
		return
	}
	engine.emit(Message{
		Kind:        MessageKindTaskComplete,
		TaskName:    entry.name,
		Result:      taskValue,
		ElapsedTime: time.Since(startedAt),
		Metadata:    settings.metadata,
	})
}

// runAttempt executes the callable once under the configured timeout guard.
// The attempt's hard deadline restarts here, so every retry gets a fresh
// ceiling.
func (engine *executionEngine) runAttempt(
	executionContext context.Context,
	entry taskEntry,
	settings taskSettings,
	livenessClock *heartbeatClock,
	attemptNumber int,
) (any, error) {
	attemptStartedAt := time.Now()
	resultChannel := make(chan attemptResult, 1)

	attemptContext, cancelAttempt := context.WithCancel(executionContext)
	defer cancelAttempt()

	if entry.blocking() {
		submitError := engine.blockingPool.Submit(executionContext, func() {
			resultChannel <- runCallableSafely(func() (any, error) {
				return entry.blockingCallable()
			})
		})
		if submitError != nil {
			return nil, fmt.Errorf("runner.submit: %w", submitError)
		}
	} else {
		go func() {
			resultChannel <- runCallableSafely(func() (any, error) {
				return entry.contextCallable(attemptContext)
			})
		}()
	}

	if settings.heartbeatExtendsTimeout && settings.timeout > 0 {
		return guardExtendable(
			executionContext,
			resultChannel,
			livenessClock,
			entry.name,
			attemptNumber,
			settings.timeout,
			settings.hardTimeout,
			settings.pollInterval,
			attemptStartedAt,
		)
	}
	return guardFixed(executionContext, resultChannel, entry.name, attemptNumber, settings.hardTimeout, attemptStartedAt)
}

// runCallableSafely converts a callable panic into an ordinary error so one
// misbehaving task cannot take down the run.
func runCallableSafely(callable func() (any, error)) (result attemptResult) {
	defer func() {
		if panicValue := recover(); panicValue != nil {
			result = attemptResult{err: fmt.Errorf("runner.callable: panic: %v", panicValue)}
		}
	}()
	value, callableError := callable()
	return attemptResult{value: value, err: callableError}
}

func sleepWithContext(executionContext context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	delayTimer := time.NewTimer(delay)
	defer delayTimer.Stop()
	select {
	case <-delayTimer.C:
		return nil
	case <-executionContext.Done():
		return executionContext.Err()
	}
}
