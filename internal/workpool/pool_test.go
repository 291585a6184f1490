package workpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedWork(testInstance *testing.T) {
	pool := New(2, 4)
	defer pool.StopWait()

	var completedCount atomic.Int64
	var completionGroup sync.WaitGroup
	for submissionIndex := 0; submissionIndex < 8; submissionIndex++ {
		completionGroup.Add(1)
		submissionError := pool.Submit(context.Background(), func() {
			defer completionGroup.Done()
			completedCount.Add(1)
		})
		require.NoError(testInstance, submissionError)
	}

	completionGroup.Wait()
	require.Equal(testInstance, int64(8), completedCount.Load())
}

func TestPoolBoundsConcurrentExecutions(testInstance *testing.T) {
	const workerCount = 2
	pool := New(workerCount, 16)
	defer pool.StopWait()

	var trackingMutex sync.Mutex
	runningCount := 0
	observedMaximum := 0
	var completionGroup sync.WaitGroup
	for submissionIndex := 0; submissionIndex < 10; submissionIndex++ {
		completionGroup.Add(1)
		require.NoError(testInstance, pool.Submit(context.Background(), func() {
			defer completionGroup.Done()
			trackingMutex.Lock()
			runningCount++
			if runningCount > observedMaximum {
				observedMaximum = runningCount
			}
			trackingMutex.Unlock()
			time.Sleep(10 * time.Millisecond)
			trackingMutex.Lock()
			runningCount--
			trackingMutex.Unlock()
		}))
	}

	completionGroup.Wait()
	require.LessOrEqual(testInstance, observedMaximum, workerCount)
	require.Greater(testInstance, observedMaximum, 0)
}

func TestPoolRejectsSubmitAfterStop(testInstance *testing.T) {
	pool := New(1, 1)
	pool.StopWait()

	submissionError := pool.Submit(context.Background(), func() {})
	require.ErrorIs(testInstance, submissionError, ErrPoolStopped)
}

func TestPoolSubmitHonorsContextCancellation(testInstance *testing.T) {
	pool := New(1, 0)
	defer pool.StopWait()

	blockWorker := make(chan struct{})
	require.NoError(testInstance, pool.Submit(context.Background(), func() { <-blockWorker }))

	cancelledContext, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	submissionError := pool.Submit(cancelledContext, func() {})
	require.ErrorIs(testInstance, submissionError, context.DeadlineExceeded)

	close(blockWorker)
}

func TestPoolSurvivesPanickingWork(testInstance *testing.T) {
	pool := New(1, 2)
	defer pool.StopWait()

	require.NoError(testInstance, pool.Submit(context.Background(), func() { panic("bad work") }))

	completed := make(chan struct{})
	require.NoError(testInstance, pool.Submit(context.Background(), func() { close(completed) }))

	select {
	case <-completed:
	case <-time.After(time.Second):
		testInstance.Fatal("worker did not recover from panic")
	}
}
