// Package internal wires the linkbio application together
package internal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"linkbio/internal/analytics"
	"linkbio/internal/config"
	"linkbio/internal/database"
	"linkbio/internal/events"
	"linkbio/internal/jobs"
	"linkbio/internal/links"
)

// Components holds the long-lived services shared by handlers and workers.
type Components struct {
	Store     *events.Store
	Recorder  *events.Recorder
	Registry  *links.Registry
	Analytics *analytics.Service
	Scheduler *jobs.Scheduler
}

// NewComponents builds the event pipeline and analytics service on top of
// dbManager. Nothing is started.
func NewComponents(dbManager cartridge.DBManager, logger *slog.Logger, cfg *config.Config) *Components {
	store := events.NewStore(dbManager, logger)
	recorder := events.NewRecorder(store, logger, cfg.RecorderWorkers, cfg.RecorderQueueSize)
	registry := links.NewRegistry(dbManager, logger)

	interval := time.Duration(cfg.JobIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	scheduler := jobs.NewScheduler(logger,
		jobs.NewCleanupJob(store, logger, cfg.EventsRetentionDays),
		jobs.NewBacklogJob(recorder, logger, interval, cfg.RecorderQueueSize),
	)

	return &Components{
		Store:     store,
		Recorder:  recorder,
		Registry:  registry,
		Analytics: analytics.NewService(store, registry, recorder, logger),
		Scheduler: scheduler,
	}
}

// Application wraps cartridge.Application with the linkbio components
type Application struct {
	*cartridge.Application
	DBManager  *database.DBManager
	Components *Components
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	components := NewComponents(dbManager, logger, cfg)

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:       cfg,
		Logger:       logger,
		DBManager:    dbManager,
		ServerConfig: NewServerConfig(),
		RouteMountFunc: func(srv *cartridge.Server) {
			MountAppRoutes(srv, components)
		},
		BackgroundWorkers: []cartridge.BackgroundWorker{components.Scheduler, components.Recorder},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
		Components:  components,
	}, nil
}
