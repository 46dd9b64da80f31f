package services

import (
	"context"
	"time"

	"github.com/terraincognita07/tandem/internal/logging"
	"go.uber.org/zap"
)

type RetentionSweeper struct {
	ledger   *NotificationService
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
}

func NewRetentionSweeper(ledger *NotificationService, maxAge time.Duration, interval time.Duration, logger *zap.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		ledger:   ledger,
		maxAge:   maxAge,
		interval: interval,
		logger:   logging.OrNop(logger).Named("retention"),
	}
}

// Start runs one sweep immediately and then one per interval until ctx ends.
func (sweeper *RetentionSweeper) Start(ctx context.Context) {
	if sweeper.interval <= 0 || sweeper.maxAge <= 0 {
		sweeper.logger.Warn("notification retention sweeper disabled",
			zap.Duration("interval", sweeper.interval),
			zap.Duration("max_age", sweeper.maxAge),
		)
		return
	}

	ticker := time.NewTicker(sweeper.interval)
	go func() {
		defer ticker.Stop()

		sweeper.run(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweeper.run(ctx)
			}
		}
	}()
}

func (sweeper *RetentionSweeper) run(ctx context.Context) {
	deleted, err := sweeper.ledger.SweepRead(ctx, sweeper.maxAge)
	if err != nil {
		if ctx.Err() == nil {
			sweeper.logger.Error("notification sweep failed", zap.Error(err))
		}
		return
	}
	if deleted > 0 {
		sweeper.logger.Info("notification sweep removed read notifications", zap.Int64("deleted", deleted))
	}
}
