package analytics

import (
	"context"
	"log/slog"
	"sort"

	"linkbio/internal/events"
	"linkbio/internal/timeframe"
)

// RangeQuery retrieves a profile's events within an optional window.
type RangeQuery struct {
	reader events.Reader
	logger *slog.Logger
}

func NewRangeQuery(reader events.Reader, logger *slog.Logger) *RangeQuery {
	return &RangeQuery{
		reader: reader,
		logger: logger,
	}
}

// Fetch returns the events of profileID whose created_at lies within r,
// newest first. An inverted range yields no events. Retrieval errors are
// logged and also yield no events.
func (q *RangeQuery) Fetch(ctx context.Context, profileID string, r timeframe.Range) []events.Event {
	if r.IsEmpty() {
		q.logger.Debug("Empty range requested",
			slog.String("profile_id", profileID),
			slog.String("range", r.String()))
		return []events.Event{}
	}

	result, err := q.reader.Query(ctx, profileID, r.Start, r.End)
	if err != nil {
		q.logger.Error("Failed to fetch events",
			slog.String("profile_id", profileID),
			slog.String("range", r.String()),
			slog.Any("error", err))
		return []events.Event{}
	}
	if result == nil {
		return []events.Event{}
	}

	SortNewestFirst(result)
	return result
}

// SortNewestFirst orders events by created_at descending, breaking ties by
// id descending.
func SortNewestFirst(evts []events.Event) {
	sort.SliceStable(evts, func(i, j int) bool {
		a, b := evts[i], evts[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
