// Package cleanup runs recurring background maintenance such as evicting
// expired debug sessions.
package cleanup

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Logger defines the logging interface
type Logger interface {
	Debugf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// BackgroundTask runs a function on a fixed interval until stopped.
type BackgroundTask struct {
	name     string
	interval time.Duration
	taskFunc func(ctx context.Context)
	logger   Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	lastRun   time.Time
	isRunning int32

	runCount   int64
	errorCount int64
}

// Stats describes the work done by a task.
type Stats struct {
	Name       string
	Interval   time.Duration
	Running    bool
	LastRun    time.Time
	RunCount   int64
	ErrorCount int64
}

// NewBackgroundTask creates a task. It does nothing until Start.
func NewBackgroundTask(name string, interval time.Duration, taskFunc func(ctx context.Context), logger Logger) *BackgroundTask {
	if logger == nil {
		logger = noOpLogger{}
	}
	return &BackgroundTask{
		name:     name,
		interval: interval,
		taskFunc: taskFunc,
		logger:   logger,
	}
}

// Start runs the task once right away and then on every interval, until
// Stop is called or ctx is done. Starting a running task does nothing.
func (bt *BackgroundTask) Start(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&bt.isRunning, 0, 1) {
		bt.logger.Debugf("Background task %s is already running", bt.name)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	bt.mu.Lock()
	bt.cancel = cancel
	bt.done = done
	bt.mu.Unlock()

	go bt.run(ctx, done)
	bt.logger.Debugf("Started background task: %s (interval: %v)", bt.name, bt.interval)
}

// Stop cancels the task and waits for the current execution to return.
func (bt *BackgroundTask) Stop() {
	bt.mu.Lock()
	cancel, done := bt.cancel, bt.done
	bt.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (bt *BackgroundTask) run(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(bt.interval)
	defer func() {
		ticker.Stop()
		atomic.StoreInt32(&bt.isRunning, 0)
		close(done)
		bt.logger.Debugf("Stopped background task: %s", bt.name)
	}()

	bt.execute(ctx)
	for {
		select {
		case <-ticker.C:
			bt.execute(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// execute runs the task function, turning a panic into an error count.
func (bt *BackgroundTask) execute(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&bt.errorCount, 1)
			bt.logger.Errorf("Task %s panicked: %v", bt.name, r)
		}
	}()

	bt.mu.Lock()
	bt.lastRun = time.Now()
	bt.mu.Unlock()

	atomic.AddInt64(&bt.runCount, 1)
	bt.taskFunc(ctx)
}

// Stats returns statistics about the task.
func (bt *BackgroundTask) Stats() Stats {
	bt.mu.Lock()
	lastRun := bt.lastRun
	bt.mu.Unlock()

	return Stats{
		Name:       bt.name,
		Interval:   bt.interval,
		Running:    bt.IsRunning(),
		LastRun:    lastRun,
		RunCount:   atomic.LoadInt64(&bt.runCount),
		ErrorCount: atomic.LoadInt64(&bt.errorCount),
	}
}

// IsRunning returns whether the task is currently running
func (bt *BackgroundTask) IsRunning() bool {
	return atomic.LoadInt32(&bt.isRunning) == 1
}

type noOpLogger struct{}

func (noOpLogger) Debugf(format string, args ...interface{}) {}
func (noOpLogger) Errorf(format string, args ...interface{}) {}
