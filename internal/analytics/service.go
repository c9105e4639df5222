package analytics

import (
	"context"
	"log/slog"

	"linkbio/internal/events"
	"linkbio/internal/links"
	"linkbio/internal/pkg/async"
	"linkbio/internal/timeframe"
)

const (
	taskEvents = "events"
	taskLinks  = "links"
)

// EventRecorder records visitor interactions without blocking.
type EventRecorder interface {
	RecordPageView(profileID string, client events.Client)
	RecordLinkClick(profileID, linkID string, client events.Client)
}

// Service exposes the dashboard-facing analytics operations.
type Service struct {
	query       *RangeQuery
	registry    LinkRegistry
	recorder    EventRecorder
	pool        *async.Pool
	generations *Generations
	logger      *slog.Logger
}

func NewService(reader events.Reader, registry LinkRegistry, recorder EventRecorder, logger *slog.Logger) *Service {
	return &Service{
		query:       NewRangeQuery(reader, logger),
		registry:    registry,
		recorder:    recorder,
		pool:        async.NewPool(2),
		generations: NewGenerations(),
		logger:      logger,
	}
}

// RecordPageView records a visit to a profile page.
func (s *Service) RecordPageView(profileID string, client events.Client) {
	s.recorder.RecordPageView(profileID, client)
}

// RecordLinkClick records a click on a profile link.
func (s *Service) RecordLinkClick(profileID, linkID string, client events.Client) {
	s.recorder.RecordLinkClick(profileID, linkID, client)
}

// GetSummary fetches the events in r and the profile's links concurrently
// and summarizes them. A failing link registry degrades to an empty one.
func (s *Service) GetSummary(ctx context.Context, profileID string, r timeframe.Range) Summary {
	evts, registry := s.snapshot(ctx, profileID, r)
	return Summarize(evts, registry)
}

// GetSummaryFor is GetSummary for a viewer that may issue overlapping
// requests. Only the viewer's latest request counts: the second return value
// is false when a newer request began before this one finished, and the
// summary must then be discarded.
func (s *Service) GetSummaryFor(ctx context.Context, viewerKey, profileID string, r timeframe.Range) (Summary, bool) {
	ctx, ticket := s.generations.Begin(ctx, viewerKey)
	defer ticket.Done()

	evts, registry := s.snapshot(ctx, profileID, r)
	if !ticket.Current() {
		s.logger.Debug("Discarding superseded summary",
			slog.String("profile_id", profileID),
			slog.String("viewer", viewerKey))
		return Summary{}, false
	}
	return Summarize(evts, registry), true
}

func (s *Service) snapshot(ctx context.Context, profileID string, r timeframe.Range) ([]events.Event, []links.Link) {
	results := s.pool.Execute(ctx, []async.Task{
		{
			Name: taskEvents,
			Execute: func(ctx context.Context) (interface{}, error) {
				return s.query.Fetch(ctx, profileID, r), nil
			},
		},
		{
			Name: taskLinks,
			Execute: func(ctx context.Context) (interface{}, error) {
				return s.registry.ListLinks(ctx, profileID)
			},
		},
	})

	evts := []events.Event{}
	if result, ok := results[taskEvents]; ok && result.Err == nil {
		if fetched, ok := result.Data.([]events.Event); ok {
			evts = fetched
		}
	}

	registry := []links.Link{}
	result, ok := results[taskLinks]
	switch {
	case !ok:
		s.logger.Warn("Link registry did not answer", slog.String("profile_id", profileID))
	case result.Err != nil:
		s.logger.Error("Failed to list links",
			slog.String("profile_id", profileID),
			slog.Any("error", result.Err))
	default:
		if listed, ok := result.Data.([]links.Link); ok {
			registry = listed
		}
	}

	return evts, registry
}
