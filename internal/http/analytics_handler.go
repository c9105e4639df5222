package http

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"linkbio/internal/analytics"
	"linkbio/internal/config"
	"linkbio/internal/events"
	"linkbio/internal/http/middleware"
	"linkbio/internal/timeframe"
)

const (
	// DashboardSessionHeader identifies a dashboard view; a newer summary
	// request from the same view supersedes older ones.
	DashboardSessionHeader = "X-Dashboard-Session"

	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

// SummaryProvider computes analytics summaries.
type SummaryProvider interface {
	GetSummaryFor(ctx context.Context, viewerKey, profileID string, r timeframe.Range) (analytics.Summary, bool)
}

// EventLister returns a profile's newest events.
type EventLister interface {
	Recent(ctx context.Context, profileID string, limit int) ([]events.Event, error)
}

// EventView is the JSON shape of a stored event.
type EventView struct {
	ID         string            `json:"id"`
	EventType  events.EventType  `json:"event_type"`
	LinkID     string            `json:"link_id,omitempty"`
	DeviceType events.DeviceType `json:"device_type"`
	UserAgent  string            `json:"user_agent"`
	IPAddress  string            `json:"ip_address"`
	CreatedAt  time.Time         `json:"created_at"`
}

func newEventView(evt events.Event) EventView {
	linkID, _ := evt.LinkID()
	return EventView{
		ID:         evt.ID,
		EventType:  evt.Type(),
		LinkID:     linkID,
		DeviceType: evt.DeviceType,
		UserAgent:  evt.UserAgent,
		IPAddress:  evt.IPAddress,
		CreatedAt:  evt.CreatedAt,
	}
}

// AnalyticsSummaryAction returns the summary of the scoped profile for the
// from/to range. Missing bounds are open; tz defaults to the configured
// timezone.
func AnalyticsSummaryAction(provider SummaryProvider) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		profile, ok := middleware.CurrentProfile(ctx.Ctx)
		if !ok {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}

		cfg := ctx.Config.(*config.Config)
		days, err := strconv.Atoi(ctx.Query("days", "0"))
		if err != nil || days < 0 {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid days parameter"})
		}

		r, err := timeframe.NewRangeParser().ParseRange(timeframe.RangeParserParams{
			FromDate:    ctx.Query("from"),
			ToDate:      ctx.Query("to"),
			Tz:          ctx.Query("tz", cfg.DefaultTimezone),
			DefaultDays: days,
		})
		if err != nil {
			ctx.Logger.Debug("Invalid analytics range", slog.Any("error", err))
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		viewer := ctx.Get(DashboardSessionHeader)
		summary, current := provider.GetSummaryFor(ctx.UserContext(), viewer, profile.ID, r)
		if !current {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "superseded"})
		}

		ctx.Logger.Debug("Served analytics summary",
			slog.String("profile_id", profile.ID),
			slog.String("range", r.String()),
			slog.Int("views", summary.TotalViews))
		return ctx.JSON(summary)
	}
}

// EventsIndexAction returns the newest raw events of the scoped profile.
func EventsIndexAction(lister EventLister) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		profile, ok := middleware.CurrentProfile(ctx.Ctx)
		if !ok {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}

		limit, err := strconv.Atoi(ctx.Query("limit", strconv.Itoa(defaultEventsLimit)))
		if err != nil || limit < 1 {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
		}
		if limit > maxEventsLimit {
			limit = maxEventsLimit
		}

		recent, err := lister.Recent(ctx.UserContext(), profile.ID, limit)
		if err != nil {
			ctx.Logger.Error("Failed to list events", slog.String("profile_id", profile.ID), slog.Any("error", err))
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list events"})
		}

		views := make([]EventView, 0, len(recent))
		for _, evt := range recent {
			views = append(views, newEventView(evt))
		}
		return ctx.JSON(fiber.Map{"events": views})
	}
}
