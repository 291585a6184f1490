// Package workpool provides a bounded pool of worker goroutines draining a
// buffered work queue. Callers submit plain functions; panics inside a
// submitted function are recovered so a worker survives misbehaving work.
package workpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolStopped is returned by Submit after the pool has been stopped.
var ErrPoolStopped = errors.New("workpool: pool stopped")

const minimumWorkerCountConstant = 1

// Pool runs submitted functions on a fixed set of workers.
type Pool struct {
	workQueue   chan func()
	workerGroup sync.WaitGroup
	poolContext context.Context
	cancelPool  context.CancelFunc
	stopOnce    sync.Once
}

// New builds a started pool with workerCount workers and a queue holding up
// to queueCapacity pending functions.
func New(workerCount int, queueCapacity int) *Pool {
	if workerCount < minimumWorkerCountConstant {
		workerCount = minimumWorkerCountConstant
	}
	if queueCapacity < 0 {
		queueCapacity = 0
	}
	poolContext, cancelPool := context.WithCancel(context.Background())
	pool := &Pool{
		workQueue:   make(chan func(), queueCapacity),
		poolContext: poolContext,
		cancelPool:  cancelPool,
	}
	for workerIndex := 0; workerIndex < workerCount; workerIndex++ {
		pool.workerGroup.Add(1)
		go pool.workerLoop()
	}
	return pool
}

func (pool *Pool) workerLoop() {
	defer pool.workerGroup.Done()
	for {
		select {
		case <-pool.poolContext.Done():
			return
		case work, queueOpen := <-pool.workQueue:
			if !queueOpen {
				return
			}
			pool.runRecovered(work)
		}
	}
}

func (pool *Pool) runRecovered(work func()) {
	defer func() {
		_ = recover()
	}()
	work()
}

// Submit enqueues work, blocking until a queue slot frees, the submission
// context is cancelled, or the pool stops.
func (pool *Pool) Submit(submissionContext context.Context, work func()) error {
	if work == nil {
		return nil
	}
	select {
	case <-pool.poolContext.Done():
		return ErrPoolStopped
	default:
	}
	select {
	case pool.workQueue <- work:
		return nil
	case <-pool.poolContext.Done():
		return ErrPoolStopped
	case <-submissionContext.Done():
		return fmt.Errorf("workpool.submit: %w", submissionContext.Err())
	}
}

// Stop cancels the pool without waiting. Workers finish the function they are
// currently running and exit; queued work is dropped.
func (pool *Pool) Stop() {
	pool.stopOnce.Do(pool.cancelPool)
}

// StopWait cancels the pool and blocks until every worker has exited.
func (pool *Pool) StopWait() {
	pool.Stop()
	pool.workerGroup.Wait()
}
