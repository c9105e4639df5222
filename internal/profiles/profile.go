package profiles

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Default page colors, as offered by the page editor.
const (
	DefaultBackgroundColor = "#ffffff"
	DefaultTextColor       = "#111827"
	DefaultButtonColor     = "#111827"
	DefaultButtonTextColor = "#ffffff"
)

// ProfileNotFoundError represents an error when a profile is not found
type ProfileNotFoundError struct {
	ID string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile not found: %s", e.ID)
}

// NewProfileNotFoundError creates a new ProfileNotFoundError
func NewProfileNotFoundError(id string) *ProfileNotFoundError {
	return &ProfileNotFoundError{ID: id}
}

// Profile is the public page that events are recorded against.
type Profile struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Name            string    `gorm:"not null" json:"name"`
	Subtitle        string    `json:"subtitle"`
	Title           string    `json:"title"`
	ProfileImage    string    `json:"profile_image"`
	BackgroundColor string    `json:"background_color"`
	TextColor       string    `json:"text_color"`
	ButtonColor     string    `json:"button_color"`
	ButtonTextColor string    `json:"button_text_color"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p *Profile) validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.New("profile name cannot be empty")
	}
	return nil
}

func (p *Profile) applyDefaults() {
	if p.BackgroundColor == "" {
		p.BackgroundColor = DefaultBackgroundColor
	}
	if p.TextColor == "" {
		p.TextColor = DefaultTextColor
	}
	if p.ButtonColor == "" {
		p.ButtonColor = DefaultButtonColor
	}
	if p.ButtonTextColor == "" {
		p.ButtonTextColor = DefaultButtonTextColor
	}
}

// GetProfileOrNotFound retrieves a profile by id.
func GetProfileOrNotFound(db *gorm.DB, id string) (*Profile, error) {
	var profile Profile
	if err := db.Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewProfileNotFoundError(id)
		}
		return nil, fmt.Errorf("unexpected error querying profile: %w", err)
	}
	return &profile, nil
}

// GetFirstProfile retrieves the oldest profile.
func GetFirstProfile(db *gorm.DB) (*Profile, error) {
	var profile Profile
	if err := db.Order("created_at ASC").First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetAllProfiles retrieves all profiles
func GetAllProfiles(db *gorm.DB) ([]Profile, error) {
	var result []Profile
	if err := db.Order("created_at ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	return result, nil
}

// CreateProfile creates a new profile, assigning an id when missing.
func CreateProfile(db *gorm.DB, profile *Profile) error {
	if err := profile.validate(); err != nil {
		return err
	}
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.applyDefaults()
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	return sqlite.PerformWrite(slog.Default(), db, func(tx *gorm.DB) error {
		return tx.Create(profile).Error
	})
}

// UpdateProfile saves the editable fields of an existing profile
func UpdateProfile(db *gorm.DB, profile *Profile) error {
	if err := profile.validate(); err != nil {
		return err
	}
	if _, err := GetProfileOrNotFound(db, profile.ID); err != nil {
		return err
	}
	profile.applyDefaults()
	profile.UpdatedAt = time.Now().UTC()

	return sqlite.PerformWrite(slog.Default(), db, func(tx *gorm.DB) error {
		return tx.Model(&Profile{}).Where("id = ?", profile.ID).Updates(map[string]interface{}{
			"name":              profile.Name,
			"subtitle":          profile.Subtitle,
			"title":             profile.Title,
			"profile_image":     profile.ProfileImage,
			"background_color":  profile.BackgroundColor,
			"text_color":        profile.TextColor,
			"button_color":      profile.ButtonColor,
			"button_text_color": profile.ButtonTextColor,
			"updated_at":        profile.UpdatedAt,
		}).Error
	})
}

// ProfileWithStats is a profile with its recent event count
type ProfileWithStats struct {
	Profile
	EventCount int64 `json:"event_count"`
}

// GetProfilesWithStats retrieves all profiles with the number of events
// recorded during the last daysBack days.
func GetProfilesWithStats(db *gorm.DB, daysBack int) ([]ProfileWithStats, error) {
	all, err := GetAllProfiles(db)
	if err != nil {
		return nil, err
	}

	result := make([]ProfileWithStats, len(all))
	timeLimit := time.Now().UTC().AddDate(0, 0, -daysBack)

	for i, profile := range all {
		var eventCount int64
		err := db.Table("events").
			Where("profile_id = ? AND created_at >= ?", profile.ID, timeLimit).
			Count(&eventCount).Error
		if err != nil {
			// On error, default to 0 but continue
			eventCount = 0
		}

		result[i] = ProfileWithStats{Profile: profile, EventCount: eventCount}
	}

	return result, nil
}
