package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

type ReadNotificationSweeper interface {
	SweepRead(ctx context.Context, maxAge time.Duration) (int64, error)
}

type CatalogSeeder interface {
	EnsureCatalog(ctx context.Context) (int64, error)
	CatalogSize(ctx context.Context) (int64, error)
}

// RunSweepCommand deletes read notifications older than days. Unread
// notifications are kept regardless of age.
func RunSweepCommand(ctx context.Context, sweeper ReadNotificationSweeper, days int, out io.Writer) (int64, error) {
	if days <= 0 {
		return 0, errors.New("days must be positive")
	}
	deleted, err := sweeper.SweepRead(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return 0, fmt.Errorf("sweep notifications: %w", err)
	}
	fmt.Fprintf(out, "Deleted %d read notifications older than %d days\n", deleted, days)
	return deleted, nil
}

func RunSeedCommand(ctx context.Context, seeder CatalogSeeder, out io.Writer) (int64, error) {
	inserted, err := seeder.EnsureCatalog(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed question catalog: %w", err)
	}
	total, err := seeder.CatalogSize(ctx)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	fmt.Fprintf(out, "Inserted %d catalog questions (%d total)\n", inserted, total)
	return inserted, nil
}
