package http

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"linkbio/internal/http/middleware"
	"linkbio/internal/links"
)

// LinkRegistry is the link store used by the owner API. Mutations must
// invalidate whatever the analytics side has cached.
type LinkRegistry interface {
	ListLinks(ctx context.Context, profileID string) ([]links.Link, error)
	Create(link *links.Link) error
	Update(link *links.Link) error
	Delete(id string) error
}

// LinkParams is the editable part of a link.
type LinkParams struct {
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	OrderIndex  *int    `json:"order_index"`
	IsActive    *bool   `json:"is_active"`
}

func (p LinkParams) apply(link *links.Link) {
	if p.Title != nil {
		link.Title = *p.Title
	}
	if p.URL != nil {
		link.URL = *p.URL
	}
	if p.Description != nil {
		link.Description = *p.Description
	}
	if p.Icon != nil {
		link.Icon = *p.Icon
	}
	if p.OrderIndex != nil {
		link.OrderIndex = *p.OrderIndex
	}
	if p.IsActive != nil {
		link.IsActive = *p.IsActive
	}
}

// LinksIndexAction lists every link of the scoped profile, hidden ones
// included.
func LinksIndexAction(registry LinkRegistry) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		profile, ok := middleware.CurrentProfile(ctx.Ctx)
		if !ok {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}

		result, err := registry.ListLinks(ctx.UserContext(), profile.ID)
		if err != nil {
			ctx.Logger.Error("Failed to list links", slog.String("profile_id", profile.ID), slog.Any("error", err))
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list links"})
		}
		return ctx.JSON(fiber.Map{"links": result})
	}
}

func LinkCreateAction(registry LinkRegistry) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		profile, ok := middleware.CurrentProfile(ctx.Ctx)
		if !ok {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}

		var params LinkParams
		if err := ctx.BodyParser(&params); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}

		link := &links.Link{ProfileID: profile.ID, IsActive: true}
		params.apply(link)
		if err := registry.Create(link); err != nil {
			ctx.Logger.Warn("Failed to create link", slog.String("profile_id", profile.ID), slog.Any("error", err))
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}

		ctx.Logger.Info("Link created", slog.String("profile_id", profile.ID), slog.String("link_id", link.ID))
		return ctx.Status(fiber.StatusCreated).JSON(link)
	}
}

func LinkUpdateAction(registry LinkRegistry) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		link, err := links.GetLinkOrNotFound(ctx.DB(), ctx.Params("id"))
		if err != nil {
			return linkLookupError(ctx, err)
		}

		var params LinkParams
		if err := ctx.BodyParser(&params); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}

		params.apply(link)
		if err := registry.Update(link); err != nil {
			var notFound *links.LinkNotFoundError
			if errors.As(err, &notFound) {
				return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
			}
			ctx.Logger.Warn("Failed to update link", slog.String("link_id", link.ID), slog.Any("error", err))
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.JSON(link)
	}
}

// LinkDeleteAction removes a link. Its recorded clicks stay and show up as
// a removed link in the analytics.
func LinkDeleteAction(registry LinkRegistry) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		linkID := ctx.Params("id")
		if err := registry.Delete(linkID); err != nil {
			return linkLookupError(ctx, err)
		}

		ctx.Logger.Info("Link deleted", slog.String("link_id", linkID))
		return ctx.SendStatus(fiber.StatusNoContent)
	}
}

func linkLookupError(ctx *cartridge.Context, err error) error {
	var notFound *links.LinkNotFoundError
	if errors.As(err, &notFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
	}
	ctx.Logger.Error("Failed to load link", slog.Any("error", err))
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load link"})
}
