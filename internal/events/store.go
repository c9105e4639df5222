package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Writer persists a single event.
type Writer interface {
	Insert(ctx context.Context, evt Event) error
}

// Reader returns a profile's events within optional inclusive bounds,
// newest first.
type Reader interface {
	Query(ctx context.Context, profileID string, start, end *time.Time) ([]Event, error)
}

// Store is the gorm-backed event table.
type Store struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
}

func NewStore(dbManager cartridge.DBManager, logger *slog.Logger) *Store {
	return &Store{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Insert appends an event. Events are never updated.
func (s *Store) Insert(ctx context.Context, evt Event) error {
	record := NewRecord(evt)
	db := s.dbManager.GetConnection().WithContext(ctx)

	err := sqlite.PerformWrite(s.logger, db, func(tx *gorm.DB) error {
		return tx.Create(&record).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

// Query returns the events of a profile whose created_at lies within
// [start, end]; nil bounds are open. Rows that cannot be converted are
// skipped and logged.
func (s *Store) Query(ctx context.Context, profileID string, start, end *time.Time) ([]Event, error) {
	q := s.scope(ctx, profileID, start, end)

	var records []Record
	if err := q.Order("created_at DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	return s.toEvents(records), nil
}

// Recent returns at most limit of the newest events of a profile.
func (s *Store) Recent(ctx context.Context, profileID string, limit int) ([]Event, error) {
	var records []Record
	err := s.scope(ctx, profileID, nil, nil).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}

	return s.toEvents(records), nil
}

// Count returns the number of stored events of a profile.
func (s *Store) Count(ctx context.Context, profileID string) (int64, error) {
	var count int64
	if err := s.scope(ctx, profileID, nil, nil).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes up to batchSize events created before cutoff and
// returns the number of deleted rows. Retention is the only way events leave
// the table.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	db := s.dbManager.GetConnection().WithContext(ctx)

	var deleted int64
	err := sqlite.PerformWrite(s.logger, db, func(tx *gorm.DB) error {
		ids := tx.Model(&Record{}).
			Select("id").
			Where("created_at < ?", cutoff.UTC()).
			Limit(batchSize)

		result := tx.Where("id IN (?)", ids).Delete(&Record{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old events: %w", err)
	}
	return deleted, nil
}

func (s *Store) scope(ctx context.Context, profileID string, start, end *time.Time) *gorm.DB {
	q := s.dbManager.GetConnection().
		WithContext(ctx).
		Model(&Record{}).
		Where("profile_id = ?", profileID)

	if start != nil {
		q = q.Where("created_at >= ?", start.UTC())
	}
	if end != nil {
		q = q.Where("created_at <= ?", end.UTC())
	}
	return q
}

func (s *Store) toEvents(records []Record) []Event {
	result := make([]Event, 0, len(records))
	for _, r := range records {
		evt, err := r.ToEvent()
		if err != nil {
			s.logger.Warn("Skipping invalid event row", slog.String("id", r.ID), slog.Any("error", err))
			continue
		}
		result = append(result, evt)
	}
	return result
}
