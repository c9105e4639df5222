// Package seeder fills a database with a demo profile, its links and a
// history of generated visitor events.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	"gopkg.in/yaml.v3"

	"linkbio/internal/events"
	"linkbio/internal/links"
	"linkbio/internal/profiles"
	"linkbio/internal/users"
)

const (
	defaultOwnerEmail    = "owner@example.com"
	defaultOwnerPassword = "changeme123"
	defaultHistoryDays   = 30
	clickShare           = 0.35
)

// Fixture describes the profile and links a seed run creates.
type Fixture struct {
	Profile FixtureProfile `yaml:"profile"`
	Links   []FixtureLink  `yaml:"links"`
}

type FixtureProfile struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
}

type FixtureLink struct {
	Title       string `yaml:"title"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
	Inactive    bool   `yaml:"inactive"`
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if fixture.Profile.Name == "" {
		return nil, errors.New("fixture profile needs a name")
	}
	return &fixture, nil
}

// LoadFixture reads a YAML fixture from disk.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// DefaultFixture is used when no fixture file is given.
func DefaultFixture() *Fixture {
	return &Fixture{
		Profile: FixtureProfile{
			Name:     "Demo Creator",
			Title:    "Photographer & writer",
			Subtitle: "Prints, essays and the occasional newsletter",
		},
		Links: []FixtureLink{
			{Title: "Print shop", URL: "https://example.com/shop"},
			{Title: "Blog", URL: "https://example.com/blog"},
			{Title: "Newsletter", URL: "https://example.com/newsletter"},
			{Title: "Portfolio", URL: "https://example.com/portfolio"},
			{Title: "Old campaign", URL: "https://example.com/campaign", Inactive: true},
		},
	}
}

// Seeder handles the data seeding process
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	EventCount int
	Days       int

	rng *rand.Rand
	now func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, eventCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		EventCount: eventCount,
		Days:       defaultHistoryDays,
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		now:        time.Now,
	}
}

// WithSeed makes event generation reproducible.
func (s *Seeder) WithSeed(seed uint64) *Seeder {
	s.rng = rand.New(rand.NewPCG(seed, 0x5eed))
	return s
}

// Run executes the seeding process and returns the seeded profile.
func (s *Seeder) Run(ctx context.Context, fixture *Fixture) (*profiles.Profile, error) {
	start := time.Now()
	if fixture == nil {
		fixture = DefaultFixture()
	}
	s.Logger.Info("Starting database seeding...",
		slog.String("profile", fixture.Profile.Name),
		slog.Int("eventCount", s.EventCount))

	if err := s.seedOwner(); err != nil {
		return nil, fmt.Errorf("failed to seed owner: %w", err)
	}

	profile, err := s.seedProfile(fixture.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to seed profile: %w", err)
	}

	profileLinks, err := s.seedLinks(profile.ID, fixture.Links)
	if err != nil {
		return nil, fmt.Errorf("failed to seed links: %w", err)
	}

	created, err := s.generateEvents(ctx, profile.ID, profileLinks)
	if err != nil {
		return nil, fmt.Errorf("failed to generate events: %w", err)
	}

	s.Logger.Info("Seeding completed successfully",
		slog.String("profile_id", profile.ID),
		slog.Int("links", len(profileLinks)),
		slog.Int("events", created),
		slog.Duration("elapsed", time.Since(start)))
	return profile, nil
}

// seedOwner creates the default owner account unless any owner exists
func (s *Seeder) seedOwner() error {
	db := s.DBManager.GetConnection()
	count, err := users.CountOwners(db)
	if err != nil {
		return err
	}
	if count > 0 {
		s.Logger.Info("Owner account already exists")
		return nil
	}

	s.Logger.Info("Creating owner account", slog.String("email", defaultOwnerEmail))
	return users.CreateOwner(db, defaultOwnerEmail, defaultOwnerPassword)
}

func (s *Seeder) seedProfile(fp FixtureProfile) (*profiles.Profile, error) {
	db := s.DBManager.GetConnection()

	if fp.ID != "" {
		existing, err := profiles.GetProfileOrNotFound(db, fp.ID)
		if err == nil {
			s.Logger.Info("Profile already exists", slog.String("profile_id", existing.ID))
			return existing, nil
		}
		var notFound *profiles.ProfileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	profile := &profiles.Profile{
		ID:       fp.ID,
		Name:     fp.Name,
		Title:    fp.Title,
		Subtitle: fp.Subtitle,
	}
	if err := profiles.CreateProfile(db, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// seedLinks creates the fixture links on a profile that has none yet
func (s *Seeder) seedLinks(profileID string, fixtureLinks []FixtureLink) ([]links.Link, error) {
	db := s.DBManager.GetConnection()

	existing, err := links.ListLinks(db, profileID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	created := make([]links.Link, 0, len(fixtureLinks))
	for i, fl := range fixtureLinks {
		link := &links.Link{
			ProfileID:   profileID,
			Title:       fl.Title,
			URL:         fl.URL,
			Description: fl.Description,
			OrderIndex:  i + 1,
			IsActive:    !fl.Inactive,
		}
		if err := links.CreateLink(db, link); err != nil {
			return nil, fmt.Errorf("link %q: %w", fl.Title, err)
		}
		created = append(created, *link)
	}
	return created, nil
}

// generateEvents writes EventCount events spread over the last Days days.
// Clicks only target active links; earlier links get more of them.
func (s *Seeder) generateEvents(ctx context.Context, profileID string, profileLinks []links.Link) (int, error) {
	store := events.NewStore(s.DBManager, s.Logger)

	var active []links.Link
	for _, link := range profileLinks {
		if link.IsActive {
			active = append(active, link)
		}
	}

	ipPool := generateIPPool(s.rng, 100)
	userAgents := getUserAgents()
	window := time.Duration(s.Days) * 24 * time.Hour
	now := s.now().UTC()

	created := 0
	for i := 0; i < s.EventCount; i++ {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}

		userAgent := userAgents[s.rng.IntN(len(userAgents))]
		var action events.Action = events.PageView{}
		if len(active) > 0 && s.rng.Float64() < clickShare {
			action = events.LinkClick{LinkID: active[weightedIndex(s.rng, len(active))].ID}
		}

		evt := events.Event{
			ID:         uuid.NewString(),
			ProfileID:  profileID,
			Action:     action,
			DeviceType: events.ClassifyDevice(userAgent),
			UserAgent:  userAgent,
			IPAddress:  ipPool[s.rng.IntN(len(ipPool))],
			CreatedAt:  now.Add(-time.Duration(s.rng.Int64N(int64(window)))),
		}
		if err := store.Insert(ctx, evt); err != nil {
			s.Logger.Error("Failed to insert event during seeding", slog.Any("error", err))
			continue
		}
		created++
	}
	return created, nil
}

// weightedIndex favours low indexes: index i is picked with weight n-i.
func weightedIndex(rng *rand.Rand, n int) int {
	total := n * (n + 1) / 2
	pick := rng.IntN(total)
	for i := 0; i < n; i++ {
		weight := n - i
		if pick < weight {
			return i
		}
		pick -= weight
	}
	return n - 1
}

// generateIPPool creates a pool of unique IPv4 addresses
func generateIPPool(rng *rand.Rand, count int) []string {
	seen := make(map[string]bool)
	var ips []string
	for len(ips) < count {
		ip := fmt.Sprintf("%d.%d.%d.%d", rng.IntN(223)+1, rng.IntN(256), rng.IntN(256), rng.IntN(256))
		if !seen[ip] {
			seen[ip] = true
			ips = append(ips, ip)
		}
	}
	return ips
}

// getUserAgents returns a list of common user agent strings
func getUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Linux; Android 13; SM-S918B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Mobile Safari/537.36",
	}
}
