package services

import (
	"context"
	"time"

	"github.com/terraincognita07/tandem/internal/logging"
	"go.uber.org/zap"
)

// DDayReminder runs RemindDue on a ticker.
type DDayReminder struct {
	ddays    *DDayService
	interval time.Duration
	logger   *zap.Logger
}

func NewDDayReminder(ddays *DDayService, interval time.Duration, logger *zap.Logger) *DDayReminder {
	return &DDayReminder{
		ddays:    ddays,
		interval: interval,
		logger:   logging.OrNop(logger).Named("dday_reminder"),
	}
}

// Start checks once immediately and then once per interval until ctx ends.
func (reminder *DDayReminder) Start(ctx context.Context) {
	if reminder.interval <= 0 {
		reminder.logger.Warn("dday reminder disabled", zap.Duration("interval", reminder.interval))
		return
	}

	ticker := time.NewTicker(reminder.interval)
	go func() {
		defer ticker.Stop()

		reminder.run(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reminder.run(ctx)
			}
		}
	}()
}

func (reminder *DDayReminder) run(ctx context.Context) {
	sent, err := reminder.ddays.RemindDue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			reminder.logger.Error("dday reminder run failed", zap.Error(err))
		}
		return
	}
	if sent > 0 {
		reminder.logger.Info("dday reminders sent", zap.Int("sent", sent))
	}
}
