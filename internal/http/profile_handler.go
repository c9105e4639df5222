package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"linkbio/internal/config"
	"linkbio/internal/http/middleware"
	"linkbio/internal/profiles"
)

// ProfileParams is the editable part of a profile.
type ProfileParams struct {
	Name            *string `json:"name"`
	Subtitle        *string `json:"subtitle"`
	Title           *string `json:"title"`
	ProfileImage    *string `json:"profile_image"`
	BackgroundColor *string `json:"background_color"`
	TextColor       *string `json:"text_color"`
	ButtonColor     *string `json:"button_color"`
	ButtonTextColor *string `json:"button_text_color"`
}

func (p ProfileParams) apply(profile *profiles.Profile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&profile.Name, p.Name)
	set(&profile.Subtitle, p.Subtitle)
	set(&profile.Title, p.Title)
	set(&profile.ProfileImage, p.ProfileImage)
	set(&profile.BackgroundColor, p.BackgroundColor)
	set(&profile.TextColor, p.TextColor)
	set(&profile.ButtonColor, p.ButtonColor)
	set(&profile.ButtonTextColor, p.ButtonTextColor)
}

// ProfilesIndexAction lists profiles with their event counts over the
// configured default window.
func ProfilesIndexAction(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)

	result, err := profiles.GetProfilesWithStats(ctx.DB(), cfg.DefaultRangeDays)
	if err != nil {
		ctx.Logger.Error("Failed to list profiles", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list profiles"})
	}
	return ctx.JSON(fiber.Map{
		"profiles": result,
		"days":     cfg.DefaultRangeDays,
	})
}

func ProfileCreateAction(ctx *cartridge.Context) error {
	var params ProfileParams
	if err := ctx.BodyParser(&params); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	profile := &profiles.Profile{}
	params.apply(profile)
	if err := profiles.CreateProfile(ctx.DB(), profile); err != nil {
		ctx.Logger.Warn("Failed to create profile", slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Logger.Info("Profile created", slog.String("profile_id", profile.ID))
	return ctx.Status(fiber.StatusCreated).JSON(profile)
}

func ProfileShowAction(ctx *cartridge.Context) error {
	profile, ok := middleware.CurrentProfile(ctx.Ctx)
	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	}
	return ctx.JSON(profile)
}

func ProfileUpdateAction(ctx *cartridge.Context) error {
	profile, ok := middleware.CurrentProfile(ctx.Ctx)
	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	}

	var params ProfileParams
	if err := ctx.BodyParser(&params); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	updated := *profile
	params.apply(&updated)
	if err := profiles.UpdateProfile(ctx.DB(), &updated); err != nil {
		var notFound *profiles.ProfileNotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
		}
		ctx.Logger.Warn("Failed to update profile", slog.String("profile_id", profile.ID), slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(updated)
}
