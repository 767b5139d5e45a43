// internal/worker/deposit_monitor_test.go
package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"deposit-service/internal/usecase"
)

type countingReverifier struct {
	calls     atomic.Int32
	lastBatch atomic.Int32
	err       error
}

func (c *countingReverifier) ReverifyPending(_ context.Context, batch int) (*usecase.ReviewSummary, error) {
	c.calls.Add(1)
	c.lastBatch.Store(int32(batch))
	if c.err != nil {
		return nil, c.err
	}
	return &usecase.ReviewSummary{Scanned: 1, Completed: 1}, nil
}

func runMonitor(dm *DepositMonitor, ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		dm.Start(ctx)
		close(done)
	}()
	return done
}

func TestDepositMonitor_ScansOnTick(t *testing.T) {
	rev := &countingReverifier{}
	dm := NewDepositMonitor(rev, 10*time.Millisecond, 25, zap.NewNop())
	done := runMonitor(dm, context.Background())

	assert.Eventually(t, func() bool { return rev.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(25), rev.lastBatch.Load())

	dm.Stop()
	dm.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestDepositMonitor_KeepsRunningAfterErrors(t *testing.T) {
	rev := &countingReverifier{err: errors.New("db down")}
	dm := NewDepositMonitor(rev, 10*time.Millisecond, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := runMonitor(dm, ctx)

	assert.Eventually(t, func() bool { return rev.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on cancel")
	}
}

func TestNewDepositMonitor_DefaultInterval(t *testing.T) {
	dm := NewDepositMonitor(&countingReverifier{}, 0, 10, zap.NewNop())
	assert.Equal(t, DefaultScanInterval, dm.interval)
}
