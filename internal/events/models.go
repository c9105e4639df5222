package events

import (
	"fmt"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	EventTypePageView  EventType = "page_view"
	EventTypeLinkClick EventType = "link_click"
)

// DeviceType is the coarse device class stored with every event.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceDesktop DeviceType = "desktop"
)

// UnknownIPAddress is stored when the caller has no client address.
const UnknownIPAddress = "unknown"

// Action is what the visitor did. It is either PageView or LinkClick; a
// link id exists only on LinkClick.
type Action interface {
	Type() EventType
	isAction()
}

// PageView is a visit to the public profile page.
type PageView struct{}

func (PageView) Type() EventType { return EventTypePageView }
func (PageView) isAction()       {}

// LinkClick is a click on one of the profile's links.
type LinkClick struct {
	LinkID string
}

func (LinkClick) Type() EventType { return EventTypeLinkClick }
func (LinkClick) isAction()       {}

// Event is an immutable recorded interaction.
type Event struct {
	ID         string
	ProfileID  string
	Action     Action
	DeviceType DeviceType
	UserAgent  string
	IPAddress  string
	CreatedAt  time.Time
}

// Type returns the event type of the underlying action.
func (e Event) Type() EventType {
	if e.Action == nil {
		return EventTypePageView
	}
	return e.Action.Type()
}

// LinkID returns the clicked link id for link clicks.
func (e Event) LinkID() (string, bool) {
	if click, ok := e.Action.(LinkClick); ok {
		return click.LinkID, true
	}
	return "", false
}

// IsMobile reports whether the event was classified as mobile.
func (e Event) IsMobile() bool {
	return e.DeviceType == DeviceMobile
}

// Record is the persisted row of an Event.
type Record struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	ProfileID  string     `gorm:"index:idx_events_profile_created;size:36;not null" json:"profile_id"`
	LinkID     *string    `gorm:"index;size:36" json:"link_id"`
	EventType  EventType  `gorm:"size:16;not null" json:"event_type"`
	DeviceType DeviceType `gorm:"size:16;not null" json:"device_type"`
	UserAgent  string     `gorm:"type:text" json:"user_agent"`
	IPAddress  string     `gorm:"size:64" json:"ip_address"`
	CreatedAt  time.Time  `gorm:"index:idx_events_profile_created;not null" json:"created_at"`
}

// TableName pins the table name used by the store.
func (Record) TableName() string {
	return "events"
}

// NewRecord converts an Event into its persisted form.
func NewRecord(e Event) Record {
	r := Record{
		ID:         e.ID,
		ProfileID:  e.ProfileID,
		EventType:  e.Type(),
		DeviceType: e.DeviceType,
		UserAgent:  e.UserAgent,
		IPAddress:  e.IPAddress,
		CreatedAt:  e.CreatedAt.UTC(),
	}
	if linkID, ok := e.LinkID(); ok {
		r.LinkID = &linkID
	}
	return r
}

// ToEvent converts a stored row back into an Event. Rows whose link id does
// not agree with their event type are rejected.
func (r Record) ToEvent() (Event, error) {
	var action Action
	switch r.EventType {
	case EventTypePageView:
		if r.LinkID != nil {
			return Event{}, fmt.Errorf("event %s: page_view with link id %q", r.ID, *r.LinkID)
		}
		action = PageView{}
	case EventTypeLinkClick:
		if r.LinkID == nil || *r.LinkID == "" {
			return Event{}, fmt.Errorf("event %s: link_click without link id", r.ID)
		}
		action = LinkClick{LinkID: *r.LinkID}
	default:
		return Event{}, fmt.Errorf("event %s: unknown event type %q", r.ID, r.EventType)
	}

	device := r.DeviceType
	if device != DeviceMobile && device != DeviceDesktop {
		return Event{}, fmt.Errorf("event %s: unknown device type %q", r.ID, r.DeviceType)
	}

	return Event{
		ID:         r.ID,
		ProfileID:  r.ProfileID,
		Action:     action,
		DeviceType: device,
		UserAgent:  r.UserAgent,
		IPAddress:  r.IPAddress,
		CreatedAt:  r.CreatedAt.UTC(),
	}, nil
}

// ParseEventType validates a wire value.
func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case EventTypePageView, EventTypeLinkClick:
		return EventType(s), nil
	}
	return "", fmt.Errorf("unknown event type: %q", s)
}
