package http

import (
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"

	"linkbio/internal/config"
	"linkbio/internal/database"
)

// QueueReporter exposes the recorder's backlog.
type QueueReporter interface {
	Pending() int
}

// CacheInvalidator drops in-memory cached data.
type CacheInvalidator interface {
	Invalidate()
}

// SystemExportDatabaseAction streams the SQLite database file
func SystemExportDatabaseAction(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)
	dbPath := cfg.GetDatabasePath()

	file, err := os.Open(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			ctx.Logger.Error("Database file not found", slog.String("path", dbPath))
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Database file not found"})
		}
		ctx.Logger.Error("Failed to open database file", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read database file"})
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		ctx.Logger.Error("Failed to get database file info", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get database file info"})
	}

	ctx.Set("Content-Type", "application/octet-stream")
	ctx.Set("Content-Disposition", "attachment; filename="+cfg.AppName+"-backup.db")
	ctx.Set("Content-Length", strconv.FormatInt(fileInfo.Size(), 10))

	ctx.Logger.Info("Database exported", slog.String("path", dbPath), slog.Int64("size", fileInfo.Size()))

	if _, err := io.Copy(ctx.Response().BodyWriter(), file); err != nil {
		ctx.Logger.Error("Failed to stream database file", slog.Any("error", err))
		return err
	}
	return nil
}

// SystemStatusAction reports table sizes and the recorder backlog.
func SystemStatusAction(queue QueueReporter) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		counts, err := database.TableCounts(ctx.DB())
		if err != nil {
			ctx.Logger.Error("Failed to count tables", slog.Any("error", err))
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read system status"})
		}

		return ctx.JSON(fiber.Map{
			"tables":         counts,
			"pending_events": queue.Pending(),
		})
	}
}

// SystemPurgeCacheAction clears persisted caches and the in-memory link
// listings.
func SystemPurgeCacheAction(registry CacheInvalidator) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		rowsAffected, err := cache.PurgeAllCaches(ctx.DB())
		if err != nil {
			ctx.Logger.Error("Failed to clear cache table", slog.Any("error", err))
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to clear caches"})
		}
		registry.Invalidate()

		ctx.Logger.Info("Caches purged successfully", slog.Int64("rows_deleted", rowsAffected))
		return ctx.JSON(fiber.Map{"rows_deleted": rowsAffected})
	}
}
