package testsupport

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"linkbio/internal"
	"linkbio/internal/config"
	"linkbio/internal/database"
	"linkbio/internal/events"
	"linkbio/internal/links"
	"linkbio/internal/profiles"
	"linkbio/internal/users"
)

func init() {
	if os.Getenv("LINKBIO_ENV") == "" {
		os.Setenv("LINKBIO_ENV", config.Test)
	}
}

// testDBCache caches test databases by root test name so that subtests and
// setup helpers share one database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

// SetupTestDB creates a named in-memory database with all models migrated.
// cache=shared lets several connections see the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", rootName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := database.Migrate(db); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	t.Helper()
	cfg := config.GetConfig()

	// Never touch a real database from tests
	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set LINKBIO_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)
	if len(tableNames) == 0 {
		return
	}

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tableNames {
			tx.Exec("DELETE FROM " + table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateTestProfile creates a profile with default colors
func CreateTestProfile(t *testing.T, db *gorm.DB, name string) profiles.Profile {
	t.Helper()

	profile := profiles.Profile{Name: name, Title: name + "'s links"}
	require.NoError(t, profiles.CreateProfile(db, &profile))
	return profile
}

// CreateTestLink appends an active link to a profile
func CreateTestLink(t *testing.T, db *gorm.DB, profileID, title, url string) links.Link {
	t.Helper()

	link := links.Link{ProfileID: profileID, Title: title, URL: url, IsActive: true}
	require.NoError(t, links.CreateLink(db, &link))
	return link
}

// CreateTestUserForAuth creates a user with a properly hashed password
func CreateTestUserForAuth(t *testing.T, db *gorm.DB, email, password string) *users.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &users.User{
		Email:             email,
		EncryptedPassword: string(hashedPassword),
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// BasicAuthHeader returns an Authorization header value for the owner API
func BasicAuthHeader(email, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+password))
}

// EventID returns a stable, sortable event id
func EventID(i int) string {
	return fmt.Sprintf("evt-%03d", i)
}

// PageViewEvent builds a page view event
func PageViewEvent(id, profileID string, at time.Time, device events.DeviceType) events.Event {
	return events.Event{
		ID:         id,
		ProfileID:  profileID,
		Action:     events.PageView{},
		DeviceType: device,
		UserAgent:  userAgentFor(device),
		IPAddress:  "127.0.0.1",
		CreatedAt:  at.UTC(),
	}
}

// LinkClickEvent builds a link click event
func LinkClickEvent(id, profileID, linkID string, at time.Time, device events.DeviceType) events.Event {
	evt := PageViewEvent(id, profileID, at, device)
	evt.Action = events.LinkClick{LinkID: linkID}
	return evt
}

func userAgentFor(device events.DeviceType) string {
	if device == events.DeviceMobile {
		return "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148"
	}
	return "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"
}

// InsertRecentEvents stores n page views spread over the last hours
func InsertRecentEvents(t *testing.T, dbManager cartridge.DBManager, profileID string, n int) {
	t.Helper()

	db := dbManager.GetConnection()
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		evt := PageViewEvent(fmt.Sprintf("%s-recent-%d", profileID, i), profileID, now.Add(-time.Duration(i+1)*time.Hour), events.DeviceDesktop)
		record := events.NewRecord(evt)
		require.NoError(t, db.Create(&record).Error)
	}
}

// CreateMinimalTestApp creates a fiber app with all routes mounted against
// db. The recorder is started and stopped with the test.
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) (*fiber.App, *internal.Components) {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	logger := GetLogger()

	// Same server config as production: Sec-Fetch-Site is enforced per route
	cfg := internal.NewServerConfig()
	cfg.Config = appConfig
	cfg.Logger = logger
	cfg.DBManager = dbManager

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	components := internal.NewComponents(dbManager, logger, appConfig)
	require.NoError(t, components.Recorder.Start())
	t.Cleanup(components.Recorder.Stop)

	internal.MountAppRoutes(srv, components)
	return srv.App(), components
}
