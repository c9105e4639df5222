package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkbio/internal/events"
)

func TestRecordConversion(t *testing.T) {
	createdAt := time.Date(2024, 3, 10, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))

	t.Run("link click carries link id both ways", func(t *testing.T) {
		evt := events.Event{
			ID: "e1", ProfileID: "p1", Action: events.LinkClick{LinkID: "L1"},
			DeviceType: events.DeviceMobile, UserAgent: "iPhone", IPAddress: "unknown", CreatedAt: createdAt,
		}

		record := events.NewRecord(evt)
		require.NotNil(t, record.LinkID)
		assert.Equal(t, "L1", *record.LinkID)
		assert.Equal(t, events.EventTypeLinkClick, record.EventType)
		assert.Equal(t, createdAt.UTC(), record.CreatedAt)

		back, err := record.ToEvent()
		require.NoError(t, err)
		assert.Equal(t, events.LinkClick{LinkID: "L1"}, back.Action)
		assert.True(t, back.IsMobile())
	})

	t.Run("page view has no link id", func(t *testing.T) {
		record := events.NewRecord(events.Event{
			ID: "e2", ProfileID: "p1", Action: events.PageView{}, DeviceType: events.DeviceDesktop, CreatedAt: createdAt,
		})
		assert.Nil(t, record.LinkID)
		assert.Equal(t, events.EventTypePageView, record.EventType)
	})

	invalid := []struct {
		name   string
		record events.Record
	}{
		{name: "page view with link", record: events.Record{ID: "x", EventType: events.EventTypePageView, LinkID: strPtr("L1"), DeviceType: events.DeviceDesktop}},
		{name: "click without link", record: events.Record{ID: "x", EventType: events.EventTypeLinkClick, DeviceType: events.DeviceDesktop}},
		{name: "click with empty link", record: events.Record{ID: "x", EventType: events.EventTypeLinkClick, LinkID: strPtr(""), DeviceType: events.DeviceDesktop}},
		{name: "unknown event type", record: events.Record{ID: "x", EventType: "scroll", DeviceType: events.DeviceDesktop}},
		{name: "unknown device type", record: events.Record{ID: "x", EventType: events.EventTypePageView, DeviceType: "tablet"}},
	}
	for _, tc := range invalid {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			_, err := tc.record.ToEvent()
			assert.Error(t, err)
		})
	}
}

func TestParseEventType(t *testing.T) {
	et, err := events.ParseEventType("link_click")
	require.NoError(t, err)
	assert.Equal(t, events.EventTypeLinkClick, et)

	_, err = events.ParseEventType("LINK_CLICK")
	assert.Error(t, err)
}

func TestClassifyDevice(t *testing.T) {
	assert.Equal(t, events.DeviceMobile, events.ClassifyDevice("Mozilla/5.0 (Linux; Android 10)"))
	assert.Equal(t, events.DeviceDesktop, events.ClassifyDevice("Mozilla/5.0 (Windows NT 10.0)"))
	assert.Equal(t, events.DeviceDesktop, events.ClassifyDevice("mozilla android"))
}

func strPtr(s string) *string { return &s }
