package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"gorm.io/gorm"

	"linkbio/internal/users"
)

// OwnerEmailKey is the Locals key holding the authenticated owner's email.
const OwnerEmailKey = "owner_email"

// OwnerAuth protects the owner API with HTTP basic auth checked against the
// users table.
func OwnerAuth(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Realm:           "linkbio",
		ContextUsername: OwnerEmailKey,
		Authorizer: func(email, password string) bool {
			_, err := users.Authenticate(db, email, password)
			if err == nil {
				return true
			}
			if errors.Is(err, users.ErrInvalidCredentials) {
				logger.Warn("Rejected owner credentials", slog.String("email", email))
			} else {
				logger.Error("Failed to authenticate owner", slog.Any("error", err))
			}
			return false
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="linkbio"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing credentials",
			})
		},
	})
}
