package catalog

import (
	"context"
	"log/slog"
	"time"

	"bazar/internal/metrics"
)

// Restocker periodically bulk-increments every item's quantity. Exactly one
// replica in the set runs it, the one configured as primary; the others
// only ever apply the restock mutations it propagates.
type Restocker struct {
	svc      *Service
	interval time.Duration
	amount   int
	logger   *slog.Logger
}

// NewRestocker builds the restock loop for the primary replica.
func NewRestocker(svc *Service, interval time.Duration, amount int, logger *slog.Logger) *Restocker {
	return &Restocker{
		svc:      svc,
		interval: interval,
		amount:   amount,
		logger:   logger,
	}
}

// Start runs the restock loop until the context is cancelled. It blocks and
// should be run in its own goroutine.
func (r *Restocker) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runOnce()
		case <-ctx.Done():
			r.logger.Debug("restocker stopped")
			return
		}
	}
}

func (r *Restocker) runOnce() {
	if err := r.svc.Restock(r.amount); err != nil {
		r.logger.Error("restock failed", "error", err)
		return
	}
	metrics.RestockRunsTotal.Inc()
	r.logger.Info("stock updated", "amount", r.amount)
}
