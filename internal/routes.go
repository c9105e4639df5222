package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "linkbio/api/v1"
	"linkbio/internal/config"
	"linkbio/internal/http"
	"linkbio/internal/http/middleware"
)

// publicCORSConfig is shared by the public event endpoints so that pages
// served from another origin can post beacons.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Referrer, User-Agent",
}

// EventSecFetchSiteValues are the Sec-Fetch-Site values accepted on event
// beacons. Profile pages are embedded and linked from other sites.
var EventSecFetchSiteValues = []string{"cross-site", "same-site", "same-origin", "none"}

// NewServerConfig returns the cartridge server config for linkbio. The
// Sec-Fetch-Site check is applied per route, since owner API clients are not
// browsers.
func NewServerConfig() *cartridge.ServerConfig {
	cfg := cartridge.DefaultServerConfig()
	cfg.EnableSecFetchSite = false
	return cfg
}

func noContent(ctx *cartridge.Context) error {
	return ctx.SendStatus(fiber.StatusNoContent)
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server, components *Components) {
	cfg := config.GetConfig()

	// Rate limiting would interfere with development and tests
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 70 requests per minute per IP for visitor-facing endpoints
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Owner endpoints check a password on every request
	ownerRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(120),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Event beacons must come from a browser. The server-wide check is off,
	// so it is only attached here.
	eventSecFetch := cartridgemiddleware.SecFetchSiteMiddleware(cartridgemiddleware.SecFetchSiteConfig{
		AllowedValues: EventSecFetchSiteValues,
		Methods:       []string{fiber.MethodPost},
	})

	// ============================================
	// ROUTE CONFIGURATIONS
	// ============================================

	// Event beacons: rate limiting + CORS + Sec-Fetch-Site
	// CORS runs first so 403 responses carry CORS headers
	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		WriteConcurrency: false,
		CustomMiddleware: []fiber.Handler{publicRateLimiter, eventSecFetch},
		CORSConfig:       publicCORSConfig,
	}

	// Profile pages and click redirects are plain navigations
	publicPageConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{publicRateLimiter},
	}

	db := srv.GetDBManager().GetConnection()
	logger := srv.GetLogger()

	// Owner API clients are scripts and dashboards, not browsers navigating
	ownerConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			ownerRateLimiter,
			middleware.OwnerAuth(db, logger),
		},
	}

	ownerProfileConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			ownerRateLimiter,
			middleware.OwnerAuth(db, logger),
			middleware.ProfileScope(db, logger),
		},
	}

	// === ROOT ROUTES ===
	srv.Get("/_health", http.HealthIndexAction(components.Recorder))
	srv.Head("/_health", http.HealthIndexAction(components.Recorder))

	// === PUBLIC PAGES ===
	srv.Get("/p/:profileID", http.PublicProfileAction(components.Analytics), publicPageConfig)
	srv.Get("/p/:profileID/l/:linkID", http.LinkRedirectAction(components.Analytics), publicPageConfig)

	// === PUBLIC API ROUTES ===
	srv.Post("/x/api/v1/events", v1.CreateEventPublicAPIHandler(components.Analytics), publicAPIConfig)
	srv.Options("/x/api/v1/events", noContent, publicAPIConfig)
	srv.Post("/x/api/v1/events/beacon", v1.CreateEventBeaconHandler(components.Analytics), publicAPIConfig)
	srv.Options("/x/api/v1/events/beacon", noContent, publicAPIConfig)
	srv.Get("/x/api/v1/device", v1.GetDeviceInfoHandler, publicAPIConfig)
	srv.Options("/x/api/v1/device", noContent, publicAPIConfig)

	// === OWNER API ROUTES ===
	srv.Get("/admin/api/profiles", http.ProfilesIndexAction, ownerConfig)
	srv.Post("/admin/api/profiles", http.ProfileCreateAction, ownerConfig)
	srv.Get("/admin/api/profiles/:id", http.ProfileShowAction, ownerProfileConfig)
	srv.Post("/admin/api/profiles/:id", http.ProfileUpdateAction, ownerProfileConfig)

	srv.Get("/admin/api/profiles/:id/analytics", http.AnalyticsSummaryAction(components.Analytics), ownerProfileConfig)
	srv.Get("/admin/api/profiles/:id/events", http.EventsIndexAction(components.Store), ownerProfileConfig)

	srv.Get("/admin/api/profiles/:id/links", http.LinksIndexAction(components.Registry), ownerProfileConfig)
	srv.Post("/admin/api/profiles/:id/links", http.LinkCreateAction(components.Registry), ownerProfileConfig)
	srv.Post("/admin/api/links/:id", http.LinkUpdateAction(components.Registry), ownerConfig)
	srv.Post("/admin/api/links/:id/delete", http.LinkDeleteAction(components.Registry), ownerConfig)
	srv.Delete("/admin/api/links/:id", http.LinkDeleteAction(components.Registry), ownerConfig)

	// === SYSTEM API ROUTES ===
	srv.Get("/admin/api/system/status", http.SystemStatusAction(components.Recorder), ownerConfig)
	srv.Get("/admin/api/system/export-database", http.SystemExportDatabaseAction, ownerConfig)
	srv.Post("/admin/api/system/purge-cache", http.SystemPurgeCacheAction(components.Registry), ownerConfig)
}
