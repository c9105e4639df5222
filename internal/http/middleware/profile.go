package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"linkbio/internal/profiles"
)

// ProfileKey is the Locals key holding the *profiles.Profile of the request.
const ProfileKey = "profile"

// ProfileScope loads the profile named by the :id route parameter.
// Dependencies are injected via the factory function.
func ProfileScope(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profileID := c.Params("id")
		if profileID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing profile id"})
		}

		profile, err := profiles.GetProfileOrNotFound(db, profileID)
		if err != nil {
			var notFound *profiles.ProfileNotFoundError
			if errors.As(err, &notFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
			}
			logger.Error("Failed to load profile", slog.String("profile_id", profileID), slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
		}

		c.Locals(ProfileKey, profile)
		logger.Debug("Applied profile scope", slog.String("profile_id", profile.ID))
		return c.Next()
	}
}

// CurrentProfile returns the profile set by ProfileScope.
func CurrentProfile(c *fiber.Ctx) (*profiles.Profile, bool) {
	profile, ok := c.Locals(ProfileKey).(*profiles.Profile)
	return profile, ok
}
