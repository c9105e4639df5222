package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"linkbio/internal/analytics"
	"linkbio/internal/config"
	"linkbio/internal/links"
	"linkbio/internal/pkg/clientip"
	"linkbio/internal/profiles"
)

// PublicLink is a link as shown to visitors. The URL points at the click
// redirect so that clicks are recorded. It is absolute when a public domain
// is configured.
type PublicLink struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	URL         string `json:"url"`
}

// PublicPage is the payload of a public profile page.
type PublicPage struct {
	Profile profiles.Profile `json:"profile"`
	Links   []PublicLink     `json:"links"`
}

// PublicProfileAction returns a profile with its active links and records a
// page view. Recording never delays or fails the response.
func PublicProfileAction(recorder analytics.EventRecorder) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		db := ctx.DB()
		profileID := ctx.Params("profileID")

		profile, err := profiles.GetProfileOrNotFound(db, profileID)
		if err != nil {
			return profileLookupError(ctx, profileID, err)
		}

		active, err := links.ListActiveLinks(db, profile.ID)
		if err != nil {
			ctx.Logger.Error("Failed to list active links", slog.String("profile_id", profile.ID), slog.Any("error", err))
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load links"})
		}

		recorder.RecordPageView(profile.ID, clientip.ClientFor(ctx.Ctx))

		cfg := ctx.Config.(*config.Config)

		page := PublicPage{Profile: *profile, Links: make([]PublicLink, 0, len(active))}
		for _, link := range active {
			page.Links = append(page.Links, PublicLink{
				ID:          link.ID,
				Title:       link.Title,
				Description: link.Description,
				Icon:        link.Icon,
				URL:         cfg.PublicURL("/p/" + profile.ID + "/l/" + link.ID),
			})
		}
		return ctx.JSON(page)
	}
}

// LinkRedirectAction records a click and redirects to the link target.
// The redirect happens whether or not the click is stored.
func LinkRedirectAction(recorder analytics.EventRecorder) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		profileID := ctx.Params("profileID")
		linkID := ctx.Params("linkID")

		link, err := links.GetProfileLink(ctx.DB(), profileID, linkID)
		if err != nil {
			var notFound *links.LinkNotFoundError
			if errors.As(err, &notFound) {
				return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
			}
			ctx.Logger.Error("Failed to load link", slog.String("link_id", linkID), slog.Any("error", err))
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load link"})
		}
		if !link.IsActive {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": links.NewLinkNotFoundError(linkID).Error()})
		}

		recorder.RecordLinkClick(profileID, link.ID, clientip.ClientFor(ctx.Ctx))
		return ctx.Redirect(link.URL, fiber.StatusFound)
	}
}

func profileLookupError(ctx *cartridge.Context, profileID string, err error) error {
	var notFound *profiles.ProfileNotFoundError
	if errors.As(err, &notFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
	}
	ctx.Logger.Error("Failed to load profile", slog.String("profile_id", profileID), slog.Any("error", err))
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
}
