package utils

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMonitor struct {
	executions int64
}

func (t *testMonitor) Execute() {
	atomic.AddInt64(&t.executions, 1)
}

func (t *testMonitor) Count() int64 {
	return atomic.LoadInt64(&t.executions)
}

func TestRunOnInterval(t *testing.T) {
	t.Run("runs immediately and then repeatedly", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mon := &testMonitor{}
		RunOnInterval(ctx, mon.Execute, 10*time.Millisecond)
		require.Equal(t, int64(1), mon.Count())

		for mon.Count() < 3 {
			runtime.Gosched()
		}
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		mon := &testMonitor{}
		RunOnInterval(ctx, mon.Execute, 10*time.Millisecond)
		cancel()
		// Let any tick that was already in flight finish
		time.Sleep(50 * time.Millisecond)

		count := mon.Count()
		time.Sleep(100 * time.Millisecond)
		require.Equal(t, count, mon.Count())
	})
}
