package runner

import (
	"sync"
	"sync/atomic"
	"time"
)

// heartbeatClock tracks a task's last liveness instant. The monitor goroutine
// refreshes it on every tick when heartbeats extend the soft deadline; the
// extendable timeout guard reads it from the execution goroutine.
type heartbeatClock struct {
	lastSeenNanos atomic.Int64
}

func newHeartbeatClock() *heartbeatClock {
	clock := &heartbeatClock{}
	clock.refresh()
	return clock
}

func (clock *heartbeatClock) refresh() {
	clock.lastSeenNanos.Store(time.Now().UnixNano())
}

func (clock *heartbeatClock) sinceLastSeen() time.Duration {
	return time.Since(time.Unix(0, clock.lastSeenNanos.Load()))
}

// heartbeatMonitor emits periodic heartbeat messages for one task until
// stopped. The execution unit stops and joins it before emitting the task's
// terminal message so a heartbeat can never trail task_complete or
// task_error.
type heartbeatMonitor struct {
	taskName     string
	interval     time.Duration
	extendsClock bool
	clock        *heartbeatClock
	metadata     map[string]any
	emit         func(Message)
	stopChannel  chan struct{}
	stopOnce     sync.Once
	doneChannel  chan struct{}
}

func newHeartbeatMonitor(
	taskName string,
	interval time.Duration,
	extendsClock bool,
	clock *heartbeatClock,
	metadata map[string]any,
	emit func(Message),
) *heartbeatMonitor {
	return &heartbeatMonitor{
		taskName:     taskName,
		interval:     interval,
		extendsClock: extendsClock,
		clock:        clock,
		metadata:     metadata,
		emit:         emit,
		stopChannel:  make(chan struct{}),
		doneChannel:  make(chan struct{}),
	}
}

func (monitor *heartbeatMonitor) start() {
	go monitor.loop()
}

func (monitor *heartbeatMonitor) loop() {
	defer close(monitor.doneChannel)
	heartbeatTicker := time.NewTicker(monitor.interval)
	defer heartbeatTicker.Stop()
	startedAt := time.Now()
	for {
		select {
		case <-monitor.stopChannel:
			return
		case <-heartbeatTicker.C:
			if monitor.extendsClock {
				monitor.clock.refresh()
			}
			monitor.emit(Message{
				Kind:        MessageKindHeartbeat,
				TaskName:    monitor.taskName,
				ElapsedTime: time.Since(startedAt),
				Metadata:    monitor.metadata,
			})
		}
	}
}

// stop halts the monitor and waits for its loop to exit. Safe to call more
// than once.
func (monitor *heartbeatMonitor) stop() {
	monitor.stopOnce.Do(func() {
		close(monitor.stopChannel)
	})
	<-monitor.doneChannel
}
