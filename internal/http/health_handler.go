package http

import (
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	DBStatus      string    `json:"db_status"`
	PendingEvents int       `json:"pending_events"`
}

func databaseStatus(ctx *cartridge.Context) string {
	db := ctx.DBManager.GetConnection()
	if db == nil {
		ctx.Logger.Error("Database connection unavailable")
		return "error"
	}

	sqlDB, err := db.DB()
	if err != nil {
		ctx.Logger.Error("Database connection error", slog.Any("error", err))
		return "error"
	}
	if err := sqlDB.PingContext(ctx.UserContext()); err != nil {
		ctx.Logger.Error("Database ping failed", slog.Any("error", err))
		return "error"
	}
	return "ok"
}

// HealthIndexAction pings the database and reports the recorder backlog
func HealthIndexAction(queue QueueReporter) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		health := HealthStatus{
			Status:        "ok",
			Timestamp:     time.Now().UTC(),
			DBStatus:      databaseStatus(ctx),
			PendingEvents: queue.Pending(),
		}
		if health.DBStatus != "ok" {
			health.Status = "degraded"
		}
		return ctx.JSON(health)
	}
}
