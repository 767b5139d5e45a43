// internal/worker/deposit_monitor.go
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"deposit-service/internal/usecase"
)

const DefaultScanInterval = time.Minute

// PendingReverifier re-verifies a batch of pending manual deposits
type PendingReverifier interface {
	ReverifyPending(ctx context.Context, batch int) (*usecase.ReviewSummary, error)
}

// DepositMonitor periodically pushes the manual review queue through the
// on-chain checks.
type DepositMonitor struct {
	reviewer  PendingReverifier
	interval  time.Duration
	batchSize int
	logger    *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewDepositMonitor(
	reviewer PendingReverifier,
	interval time.Duration,
	batchSize int,
	logger *zap.Logger,
) *DepositMonitor {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	return &DepositMonitor{
		reviewer:  reviewer,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start runs until Stop is called or ctx is cancelled
func (dm *DepositMonitor) Start(ctx context.Context) {
	dm.logger.Info("Starting deposit monitor worker",
		zap.Duration("interval", dm.interval),
		zap.Int("batch_size", dm.batchSize))

	ticker := time.NewTicker(dm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			dm.scan(ctx)

		case <-dm.stopChan:
			dm.logger.Info("Stopping deposit monitor worker")
			return

		case <-ctx.Done():
			dm.logger.Info("Context cancelled, stopping deposit monitor")
			return
		}
	}
}

// Stop stops the deposit monitor. It is safe to call more than once.
func (dm *DepositMonitor) Stop() {
	dm.stopOnce.Do(func() { close(dm.stopChan) })
}

func (dm *DepositMonitor) scan(ctx context.Context) {
	start := time.Now()

	summary, err := dm.reviewer.ReverifyPending(ctx, dm.batchSize)
	if err != nil {
		dm.logger.Error("Failed to process pending deposits", zap.Error(err))
		return
	}
	if summary.Scanned == 0 {
		return
	}

	dm.logger.Info("Processed pending deposits",
		zap.Int("scanned", summary.Scanned),
		zap.Int("completed", summary.Completed),
		zap.Int("rejected", summary.Rejected),
		zap.Int("deferred", summary.Deferred),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("took", time.Since(start)))
}
