package cleanup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackgroundTaskRunsImmediatelyAndRepeats(t *testing.T) {
	var runs atomic.Int32
	task := NewBackgroundTask("sweep", 5*time.Millisecond, func(context.Context) {
		runs.Add(1)
	}, nil)

	task.Start(context.Background())
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, time.Millisecond)
	assert.True(t, task.IsRunning())

	task.Stop()
	assert.False(t, task.IsRunning())

	stopped := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load(), "no runs after Stop")

	stats := task.Stats()
	assert.Equal(t, "sweep", stats.Name)
	assert.Equal(t, int64(stopped), stats.RunCount)
	assert.False(t, stats.LastRun.IsZero())
}

func TestBackgroundTaskStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := NewBackgroundTask("ctx", time.Hour, func(context.Context) {}, nil)

	task.Start(ctx)
	cancel()
	require.Eventually(t, func() bool { return !task.IsRunning() }, 2*time.Second, time.Millisecond)
	task.Stop()
}

func TestBackgroundTaskRecoversPanics(t *testing.T) {
	var runs atomic.Int32
	task := NewBackgroundTask("panics", 5*time.Millisecond, func(context.Context) {
		runs.Add(1)
		panic("boom")
	}, nil)

	task.Start(context.Background())
	defer task.Stop()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, task.Stats().ErrorCount, int64(2))
	assert.True(t, task.IsRunning())
}

func TestBackgroundTaskDoubleStart(t *testing.T) {
	var runs atomic.Int32
	task := NewBackgroundTask("once", time.Hour, func(context.Context) { runs.Add(1) }, nil)

	task.Start(context.Background())
	task.Start(context.Background())
	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, time.Millisecond)
	task.Stop()

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestStopBeforeStart(t *testing.T) {
	task := NewBackgroundTask("idle", time.Second, func(context.Context) {}, nil)
	task.Stop()
	assert.False(t, task.IsRunning())
}
