package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"linkbio/internal/analytics"
	"linkbio/internal/events"
	"linkbio/internal/pkg/clientip"
	"linkbio/internal/profiles"
)

const (
	msgEventAccepted  = "Event accepted"
	errInvalidRequest = "Invalid request"
)

// CreateEventParams is the body of a client-side event beacon.
type CreateEventParams struct {
	ProfileID string           `json:"profile_id"`
	EventType events.EventType `json:"event_type"`
	LinkID    string           `json:"link_id"`
}

func (p CreateEventParams) validate() error {
	if strings.TrimSpace(p.ProfileID) == "" {
		return errors.New("profile_id is required")
	}
	if _, err := events.ParseEventType(string(p.EventType)); err != nil {
		return err
	}
	if p.EventType == events.EventTypeLinkClick && strings.TrimSpace(p.LinkID) == "" {
		return errors.New("link_id is required for link clicks")
	}
	return nil
}

// CreateEventPublicAPIHandler accepts a JSON event and hands it to the
// recorder. Once the body is valid the response is 202 whatever happens to
// the event afterwards.
func CreateEventPublicAPIHandler(recorder analytics.EventRecorder) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		var params CreateEventParams
		if err := ctx.BodyParser(&params); err != nil {
			ctx.Logger.Debug("Failed to parse event request", slog.Any("error", err))
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": errInvalidRequest})
		}
		if err := params.validate(); err != nil {
			ctx.Logger.Debug("Invalid event request", slog.Any("error", err))
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		record(ctx, recorder, params)

		return ctx.Status(http.StatusAccepted).JSON(fiber.Map{
			"message": msgEventAccepted,
			"status":  http.StatusAccepted,
		})
	}
}

// CreateEventBeaconHandler handles events sent via navigator.sendBeacon,
// which posts text/plain bodies and ignores the response.
func CreateEventBeaconHandler(recorder analytics.EventRecorder) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		var params CreateEventParams
		if err := json.Unmarshal(ctx.Body(), &params); err != nil {
			ctx.Logger.Debug("Failed to parse beacon request", slog.Any("error", err))
			return ctx.SendStatus(http.StatusAccepted)
		}
		if err := params.validate(); err != nil {
			ctx.Logger.Debug("Invalid beacon request", slog.Any("error", err))
			return ctx.SendStatus(http.StatusAccepted)
		}

		record(ctx, recorder, params)
		return ctx.SendStatus(http.StatusAccepted)
	}
}

func record(ctx *cartridge.Context, recorder analytics.EventRecorder, params CreateEventParams) {
	if _, err := profiles.GetProfileOrNotFound(ctx.DB(), params.ProfileID); err != nil {
		ctx.Logger.Debug("Dropping event for unknown profile",
			slog.String("profile_id", params.ProfileID),
			slog.Any("error", err))
		return
	}

	client := clientip.ClientFor(ctx.Ctx)
	switch params.EventType {
	case events.EventTypeLinkClick:
		recorder.RecordLinkClick(params.ProfileID, params.LinkID, client)
	default:
		recorder.RecordPageView(params.ProfileID, client)
	}
}
