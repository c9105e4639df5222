package v1

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkbio/internal/events"
)

// Beacons come from browsers; scripts cannot set Sec-Fetch-Site.
func TestSecFetchSiteProtection(t *testing.T) {
	app := fiber.New()

	strictSecFetchCheck := func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost && c.Get("Sec-Fetch-Site") == "" {
			return c.SendStatus(fiber.StatusForbidden)
		}
		return c.Next()
	}

	secFetchForEvents := cartridgemiddleware.SecFetchSiteMiddleware(cartridgemiddleware.SecFetchSiteConfig{
		AllowedValues: []string{"cross-site", "same-site", "same-origin", "none"},
		Methods:       []string{fiber.MethodPost},
	})

	app.Post("/x/api/v1/events", strictSecFetchCheck, secFetchForEvents, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	payload, err := json.Marshal(CreateEventParams{ProfileID: "p1", EventType: events.EventTypePageView})
	require.NoError(t, err)

	tests := []struct {
		name               string
		secFetchSiteHeader string
		userAgent          string
		expectedStatus     int
	}{
		{name: "cross-site browser request", secFetchSiteHeader: "cross-site", userAgent: "Mozilla/5.0", expectedStatus: fiber.StatusOK},
		{name: "same-origin browser request", secFetchSiteHeader: "same-origin", userAgent: "Mozilla/5.0", expectedStatus: fiber.StatusOK},
		{name: "direct navigation", secFetchSiteHeader: "none", userAgent: "Mozilla/5.0", expectedStatus: fiber.StatusOK},
		{name: "curl without header", userAgent: "curl/8.5.0", expectedStatus: fiber.StatusForbidden},
		{name: "python without header", userAgent: "python-requests/2.31.0", expectedStatus: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodPost, "/x/api/v1/events", bytes.NewReader(payload))
			req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
			req.Header.Set("User-Agent", tt.userAgent)
			if tt.secFetchSiteHeader != "" {
				req.Header.Set("Sec-Fetch-Site", tt.secFetchSiteHeader)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}
