package jobs

import (
	"context"
	"log/slog"
	"time"
)

const cleanupBatchSize = 1000

// EventPurger deletes stored events older than a cutoff, at most batchSize
// per call.
type EventPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

// CleanupJob enforces the event retention period. Events are otherwise never
// removed.
type CleanupJob struct {
	purger        EventPurger
	logger        *slog.Logger
	retentionDays int
	now           func() time.Time
	pause         time.Duration
}

func NewCleanupJob(purger EventPurger, logger *slog.Logger, retentionDays int) *CleanupJob {
	return &CleanupJob{
		purger:        purger,
		logger:        logger,
		retentionDays: retentionDays,
		now:           time.Now,
		pause:         100 * time.Millisecond,
	}
}

func (j *CleanupJob) Name() string {
	return "events_cleanup"
}

func (j *CleanupJob) Interval() time.Duration {
	return 24 * time.Hour
}

// Run removes events older than the retention period in batches. A
// retention of 0 keeps events forever.
func (j *CleanupJob) Run(ctx context.Context) error {
	if j.retentionDays <= 0 {
		j.logger.Debug("Event retention disabled, skipping cleanup")
		return nil
	}

	cutoff := j.now().UTC().AddDate(0, 0, -j.retentionDays)
	j.logger.Info("Starting cleanup of old events",
		slog.Int("retention_days", j.retentionDays),
		slog.Time("cutoff_date", cutoff))

	var totalDeleted int64
	for {
		deleted, err := j.purger.DeleteOlderThan(ctx, cutoff, cleanupBatchSize)
		if err != nil {
			j.logger.Error("Failed to delete old events",
				slog.Any("error", err),
				slog.Int64("deleted_so_far", totalDeleted))
			return err
		}

		totalDeleted += deleted
		if deleted < cleanupBatchSize {
			break
		}

		// Let recorder writes through between batches
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(j.pause):
		}
	}

	j.logger.Info("Cleaned up old events",
		slog.Int64("deleted_count", totalDeleted),
		slog.Int("retention_days", j.retentionDays))
	return nil
}
