package links

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// LinkNotFoundError represents an error when a link is not found
type LinkNotFoundError struct {
	ID string
}

func (e *LinkNotFoundError) Error() string {
	return fmt.Sprintf("link not found: %s", e.ID)
}

// NewLinkNotFoundError creates a new LinkNotFoundError
func NewLinkNotFoundError(id string) *LinkNotFoundError {
	return &LinkNotFoundError{ID: id}
}

// Link is an outbound link shown on a profile page.
type Link struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ProfileID   string    `gorm:"index:idx_links_profile_order;size:36;not null" json:"profile_id"`
	Title       string    `gorm:"not null" json:"title"`
	URL         string    `gorm:"not null" json:"url"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	OrderIndex  int       `gorm:"index:idx_links_profile_order;not null;default:0" json:"order_index"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (l *Link) validate() error {
	l.Title = strings.TrimSpace(l.Title)
	l.URL = strings.TrimSpace(l.URL)

	if l.ProfileID == "" {
		return errors.New("link must belong to a profile")
	}
	if l.Title == "" {
		return errors.New("link title cannot be empty")
	}
	parsed, err := url.Parse(l.URL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("invalid link url: %q", l.URL)
	}
	return nil
}

// GetLinkOrNotFound retrieves a link by id.
func GetLinkOrNotFound(db *gorm.DB, id string) (*Link, error) {
	var link Link
	if err := db.Where("id = ?", id).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewLinkNotFoundError(id)
		}
		return nil, fmt.Errorf("unexpected error querying link: %w", err)
	}
	return &link, nil
}

// GetProfileLink retrieves a link only if it belongs to profileID.
func GetProfileLink(db *gorm.DB, profileID, id string) (*Link, error) {
	link, err := GetLinkOrNotFound(db, id)
	if err != nil {
		return nil, err
	}
	if link.ProfileID != profileID {
		return nil, NewLinkNotFoundError(id)
	}
	return link, nil
}

// ListLinks returns all links of a profile in display order.
func ListLinks(db *gorm.DB, profileID string) ([]Link, error) {
	var result []Link
	err := db.Where("profile_id = ?", profileID).
		Order("order_index ASC").
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return result, nil
}

// ListActiveLinks returns the links shown on the public page.
func ListActiveLinks(db *gorm.DB, profileID string) ([]Link, error) {
	var result []Link
	err := db.Where("profile_id = ? AND is_active = ?", profileID, true).
		Order("order_index ASC").
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active links: %w", err)
	}
	return result, nil
}

// CreateLink appends a link to the end of its profile's list unless an
// order index is given.
func CreateLink(db *gorm.DB, link *Link) error {
	if err := link.validate(); err != nil {
		return err
	}
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now

	return sqlite.PerformWrite(slog.Default(), db, func(tx *gorm.DB) error {
		if link.OrderIndex == 0 {
			var maxOrder sql.NullInt64
			if err := tx.Model(&Link{}).
				Where("profile_id = ?", link.ProfileID).
				Select("MAX(order_index)").
				Row().Scan(&maxOrder); err != nil {
				return err
			}
			if maxOrder.Valid {
				link.OrderIndex = int(maxOrder.Int64) + 1
			}
		}
		return tx.Create(link).Error
	})
}

// UpdateLink saves the editable fields of an existing link.
func UpdateLink(db *gorm.DB, link *Link) error {
	existing, err := GetLinkOrNotFound(db, link.ID)
	if err != nil {
		return err
	}
	link.ProfileID = existing.ProfileID
	if err := link.validate(); err != nil {
		return err
	}
	link.CreatedAt = existing.CreatedAt
	link.UpdatedAt = time.Now().UTC()

	return sqlite.PerformWrite(slog.Default(), db, func(tx *gorm.DB) error {
		return tx.Model(&Link{}).Where("id = ?", link.ID).Updates(map[string]interface{}{
			"title":       link.Title,
			"url":         link.URL,
			"description": link.Description,
			"icon":        link.Icon,
			"order_index": link.OrderIndex,
			"is_active":   link.IsActive,
			"updated_at":  link.UpdatedAt,
		}).Error
	})
}

// DeleteLink removes a link. Events that reference it are kept.
func DeleteLink(db *gorm.DB, id string) error {
	var rows int64
	err := sqlite.PerformWrite(slog.Default(), db, func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&Link{})
		rows = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return NewLinkNotFoundError(id)
	}
	return nil
}
