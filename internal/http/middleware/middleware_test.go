package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkbio/internal/http/middleware"
	"linkbio/internal/testsupport"
)

func TestOwnerAuth(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CreateTestUserForAuth(t, db, "owner@example.com", "s3cret-pass")

	app := fiber.New()
	app.Get("/private", middleware.OwnerAuth(db, logger), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(middleware.OwnerEmailKey).(string))
	})

	testCases := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid credentials", header: testsupport.BasicAuthHeader("owner@example.com", "s3cret-pass"), status: fiber.StatusOK},
		{name: "wrong password", header: testsupport.BasicAuthHeader("owner@example.com", "nope"), status: fiber.StatusUnauthorized},
		{name: "unknown owner", header: testsupport.BasicAuthHeader("ghost@example.com", "s3cret-pass"), status: fiber.StatusUnauthorized},
		{name: "missing header", header: "", status: fiber.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestProfileScope(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	profile := testsupport.CreateTestProfile(t, db, "Ada")

	app := fiber.New()
	app.Get("/profiles/:id", middleware.ProfileScope(db, logger), func(c *fiber.Ctx) error {
		current, ok := middleware.CurrentProfile(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(current.Name)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/profiles/"+profile.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/profiles/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
