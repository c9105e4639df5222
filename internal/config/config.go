// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	// Public host of profile pages, e.g. "links.example.com". Empty keeps
	// public link URLs relative.
	Domain string `mapstructure:"domain"`

	// File paths
	DatabasePath          string `mapstructure:"storagepath"`
	DatabaseName          string `mapstructure:"-"` // Derived from other settings
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Event recording
	RecorderWorkers   int `mapstructure:"recorderworkers"`
	RecorderQueueSize int `mapstructure:"recorderqueuesize"`

	// Dashboard defaults
	DefaultRangeDays int    `mapstructure:"defaultrangedays"`
	DefaultTimezone  string `mapstructure:"defaulttimezone"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`

	// Data retention settings, 0 keeps events forever
	EventsRetentionDays int `mapstructure:"eventsretentiondays"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "linkbio")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("storagepath", "storage")
		v.SetDefault("publicdir", "web/dist/assets")
		v.SetDefault("publicassetsurlprefix", "/")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbtype", SQLiteDatabase)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("recorderworkers", 2)
		v.SetDefault("recorderqueuesize", 1024)
		v.SetDefault("defaultrangedays", 30)
		v.SetDefault("defaulttimezone", "UTC")
		v.SetDefault("jobintervalseconds", 60)
		v.SetDefault("eventsretentiondays", 0)

		v.BindEnv("appname", "LINKBIO_APP_NAME")
		v.BindEnv("appport", "LINKBIO_APP_PORT")
		v.BindEnv("environment", "LINKBIO_ENV")
		v.BindEnv("loglevel", "LINKBIO_LOG_LEVEL")
		v.BindEnv("domain", "LINKBIO_DOMAIN")
		v.BindEnv("storagepath", "LINKBIO_STORAGE_PATH")
		v.BindEnv("publicdir", "LINKBIO_PUBLIC_DIR")
		v.BindEnv("publicassetsurlprefix", "LINKBIO_PUBLIC_ASSETS_URL_PREFIX")
		v.BindEnv("logsdir", "LINKBIO_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "LINKBIO_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "LINKBIO_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "LINKBIO_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbtype", "LINKBIO_DB_TYPE")
		v.BindEnv("dbmaxopenconns", "LINKBIO_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "LINKBIO_DB_MAX_IDLE_CONNS")
		v.BindEnv("recorderworkers", "LINKBIO_RECORDER_WORKERS")
		v.BindEnv("recorderqueuesize", "LINKBIO_RECORDER_QUEUE_SIZE")
		v.BindEnv("defaultrangedays", "LINKBIO_DEFAULT_RANGE_DAYS")
		v.BindEnv("defaulttimezone", "LINKBIO_DEFAULT_TIMEZONE")
		v.BindEnv("jobintervalseconds", "LINKBIO_JOB_INTERVAL_SECONDS")
		v.BindEnv("eventsretentiondays", "LINKBIO_EVENTS_RETENTION_DAYS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	if domain := strings.TrimRight(c.Domain, "/"); strings.Contains(domain, "/") && !strings.Contains(domain, "://") {
		return fmt.Errorf("domain must be a host or an absolute URL: %s", c.Domain)
	}

	if c.RecorderWorkers < 1 {
		return fmt.Errorf("recorder workers must be at least 1, got %d", c.RecorderWorkers)
	}
	if c.RecorderQueueSize < 1 {
		return fmt.Errorf("recorder queue size must be at least 1, got %d", c.RecorderQueueSize)
	}
	if c.EventsRetentionDays < 0 {
		return fmt.Errorf("events retention days cannot be negative: %d", c.EventsRetentionDays)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.LogConfigProvider).
func (c *Config) GetAppName() string {
	return c.AppName
}

// PublicURL returns path on the public domain, or path itself when no
// domain is configured. A bare host is served over https.
func (c *Config) PublicURL(path string) string {
	domain := strings.TrimRight(strings.TrimSpace(c.Domain), "/")
	if domain == "" {
		return path
	}
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	return domain + path
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment.
// Test uses a single connection; development and production allow concurrent
// dashboard reads while the recorder writes.
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
