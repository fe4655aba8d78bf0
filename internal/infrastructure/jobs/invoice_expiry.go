package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rolegate.backend/internal/domain/repositories"
	"rolegate.backend/pkg/logger"
	"rolegate.backend/pkg/metrics"
)

// InvoiceExpiryJob periodically reclaims pending invoices that were never
// paid. A purged record silently forfeits any late confirmation: the
// confirmation path will simply not find it.
type InvoiceExpiryJob struct {
	repo     repositories.PendingInvoiceRepository
	interval time.Duration
	maxAge   time.Duration
	stop     chan struct{}
}

func NewInvoiceExpiryJob(repo repositories.PendingInvoiceRepository, interval, maxAge time.Duration) *InvoiceExpiryJob {
	return &InvoiceExpiryJob{
		repo:     repo,
		interval: interval,
		maxAge:   maxAge,
		stop:     make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is called.
func (j *InvoiceExpiryJob) Start(ctx context.Context) {
	logger.Info(ctx, "starting invoice expiry sweep",
		zap.Duration("interval", j.interval),
		zap.Duration("max_age", j.maxAge),
	)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "invoice expiry sweep stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "invoice expiry sweep stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *InvoiceExpiryJob) Stop() {
	close(j.stop)
}

func (j *InvoiceExpiryJob) sweep(ctx context.Context) {
	removed, err := j.repo.PurgeOlderThan(ctx, j.maxAge)
	if err != nil {
		logger.Error(ctx, "invoice expiry sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		metrics.InvoicesExpired.Add(float64(removed))
		metrics.InvoicesPending.Sub(float64(removed))
		logger.Info(ctx, "removed expired invoices", zap.Int64("count", removed))
	}
}
