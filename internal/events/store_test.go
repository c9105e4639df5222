package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkbio/internal/events"
	"linkbio/internal/testsupport"
)

func ptr(t time.Time) *time.Time { return &t }

func TestStoreQuery(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store := events.NewStore(dbManager, logger)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	seed := []events.Event{
		testsupport.PageViewEvent("e1", "p1", base.Add(1*time.Hour), events.DeviceDesktop),
		testsupport.LinkClickEvent("e2", "p1", "L1", base.Add(2*time.Hour), events.DeviceMobile),
		testsupport.PageViewEvent("e3", "p1", base.Add(48*time.Hour), events.DeviceMobile),
		testsupport.PageViewEvent("e4", "p2", base.Add(2*time.Hour), events.DeviceDesktop),
		testsupport.PageViewEvent("e5", "p1", base.Add(2*time.Hour), events.DeviceDesktop),
	}
	for _, e := range seed {
		require.NoError(t, store.Insert(ctx, e))
	}

	ids := func(evts []events.Event) []string {
		out := make([]string, 0, len(evts))
		for _, e := range evts {
			out = append(out, e.ID)
		}
		return out
	}

	t.Run("unbounded returns all events of the profile newest first", func(t *testing.T) {
		got, err := store.Query(ctx, "p1", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"e3", "e5", "e2", "e1"}, ids(got))
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		got, err := store.Query(ctx, "p1", ptr(base.Add(1*time.Hour)), ptr(base.Add(2*time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, []string{"e5", "e2", "e1"}, ids(got))
	})

	t.Run("start only", func(t *testing.T) {
		got, err := store.Query(ctx, "p1", ptr(base.Add(24*time.Hour)), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"e3"}, ids(got))
	})

	t.Run("end only", func(t *testing.T) {
		got, err := store.Query(ctx, "p1", nil, ptr(base.Add(90*time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, []string{"e1"}, ids(got))
	})

	t.Run("bounds in another zone are compared as instants", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		start := base.Add(2 * time.Hour).In(ny)
		got, err := store.Query(ctx, "p1", &start, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"e3", "e5", "e2"}, ids(got))
	})

	t.Run("link click keeps its link id", func(t *testing.T) {
		got, err := store.Query(ctx, "p1", ptr(base.Add(2*time.Hour)), ptr(base.Add(2*time.Hour)))
		require.NoError(t, err)
		var click events.Event
		for _, e := range got {
			if e.ID == "e2" {
				click = e
			}
		}
		linkID, ok := click.LinkID()
		assert.True(t, ok)
		assert.Equal(t, "L1", linkID)
		assert.Equal(t, events.DeviceMobile, click.DeviceType)
	})

	t.Run("unknown profile yields no events", func(t *testing.T) {
		got, err := store.Query(ctx, "nobody", nil, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStoreSkipsInvalidRows(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store := events.NewStore(dbManager, logger)
	db := dbManager.GetConnection()

	linkID := "L1"
	now := time.Now().UTC()
	require.NoError(t, db.Create(&events.Record{
		ID: "bad-view", ProfileID: "p1", LinkID: &linkID,
		EventType: events.EventTypePageView, DeviceType: events.DeviceDesktop, CreatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&events.Record{
		ID: "bad-click", ProfileID: "p1",
		EventType: events.EventTypeLinkClick, DeviceType: events.DeviceDesktop, CreatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&events.Record{
		ID: "good", ProfileID: "p1",
		EventType: events.EventTypePageView, DeviceType: events.DeviceMobile, CreatedAt: now,
	}).Error)

	got, err := store.Query(context.Background(), "p1", nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].ID)
}

func TestStoreRecentAndCount(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store := events.NewStore(dbManager, logger)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		evt := testsupport.PageViewEvent(testsupport.EventID(i), "p1", base.Add(time.Duration(i)*time.Minute), events.DeviceDesktop)
		require.NoError(t, store.Insert(ctx, evt))
	}

	recent, err := store.Recent(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, testsupport.EventID(4), recent[0].ID)
	assert.Equal(t, testsupport.EventID(3), recent[1].ID)

	count, err := store.Count(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestStoreDeleteOlderThan(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store := events.NewStore(dbManager, logger)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		evt := testsupport.PageViewEvent(testsupport.EventID(i), "p1", base.AddDate(0, 0, i), events.DeviceDesktop)
		require.NoError(t, store.Insert(ctx, evt))
	}

	deleted, err := store.DeleteOlderThan(ctx, base.AddDate(0, 0, 3), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = store.DeleteOlderThan(ctx, base.AddDate(0, 0, 3), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := store.Query(ctx, "p1", nil, nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}
