package events_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"linkbio/internal/events"
	"linkbio/internal/testsupport"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Insert(ctx context.Context, evt events.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// memoryWriter collects inserted events.
type memoryWriter struct {
	mu     sync.Mutex
	events []events.Event
}

func (w *memoryWriter) Insert(ctx context.Context, evt events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, evt)
	return nil
}

func (w *memoryWriter) all() []events.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]events.Event(nil), w.events...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("evt-%03d", n)
	}
}

func TestRecorderRecordsPageViewsAndClicks(t *testing.T) {
	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	writer := &memoryWriter{}
	recorder := events.NewRecorder(writer, testsupport.GetLogger(), 1, 10,
		events.WithClock(fixedClock(now)),
		events.WithIDGenerator(sequentialIDs()),
	)
	require.NoError(t, recorder.Start())

	recorder.RecordPageView("p1", events.Client{UserAgent: "Mozilla/5.0 (Linux; Android 10)", IPAddress: "10.0.0.1"})
	recorder.RecordLinkClick("p1", "L1", events.Client{UserAgent: "Mozilla/5.0 (Windows NT 10.0)"})
	recorder.Stop()

	stored := writer.all()
	require.Len(t, stored, 2)

	view := stored[0]
	assert.Equal(t, "evt-001", view.ID)
	assert.Equal(t, "p1", view.ProfileID)
	assert.Equal(t, events.EventTypePageView, view.Type())
	assert.Equal(t, events.DeviceMobile, view.DeviceType)
	assert.Equal(t, "10.0.0.1", view.IPAddress)
	assert.Equal(t, now.UTC(), view.CreatedAt)
	assert.Equal(t, time.UTC, view.CreatedAt.Location())
	_, hasLink := view.LinkID()
	assert.False(t, hasLink)

	click := stored[1]
	assert.Equal(t, events.EventTypeLinkClick, click.Type())
	assert.Equal(t, events.DeviceDesktop, click.DeviceType)
	assert.Equal(t, events.UnknownIPAddress, click.IPAddress)
	linkID, hasLink := click.LinkID()
	assert.True(t, hasLink)
	assert.Equal(t, "L1", linkID)
}

func TestRecorderKeepsUserAgentVerbatim(t *testing.T) {
	writer := &memoryWriter{}
	recorder := events.NewRecorder(writer, testsupport.GetLogger(), 1, 10)
	require.NoError(t, recorder.Start())

	recorder.RecordPageView("p1", events.Client{UserAgent: "mozilla android"})
	recorder.RecordPageView("p1", events.Client{UserAgent: ""})
	recorder.Stop()

	stored := writer.all()
	require.Len(t, stored, 2)
	assert.Equal(t, "mozilla android", stored[0].UserAgent)
	assert.Equal(t, events.DeviceDesktop, stored[0].DeviceType)
	assert.Equal(t, "", stored[1].UserAgent)
	assert.Equal(t, events.DeviceDesktop, stored[1].DeviceType)
}

func TestRecorderSwallowsWriteFailures(t *testing.T) {
	writer := new(MockWriter)
	writer.On("Insert", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.ProfileID == "p1"
	})).Return(errors.New("database is locked")).Once()

	recorder := events.NewRecorder(writer, testsupport.GetLogger(), 1, 10)
	require.NoError(t, recorder.Start())

	assert.NotPanics(t, func() {
		recorder.RecordPageView("p1", events.Client{UserAgent: "Mozilla/5.0"})
	})
	recorder.Stop()

	writer.AssertExpectations(t)
	writer.AssertNumberOfCalls(t, "Insert", 1)
}

func TestRecorderDropsInvalidInput(t *testing.T) {
	writer := new(MockWriter)
	recorder := events.NewRecorder(writer, testsupport.GetLogger(), 1, 10)
	require.NoError(t, recorder.Start())

	recorder.RecordPageView("", events.Client{UserAgent: "Mozilla/5.0"})
	recorder.RecordLinkClick("p1", "", events.Client{UserAgent: "Mozilla/5.0"})
	recorder.Stop()

	writer.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestRecorderDropsWhenQueueIsFull(t *testing.T) {
	writer := &memoryWriter{}
	recorder := events.NewRecorder(writer, testsupport.GetLogger(), 1, 1)

	// Not started yet, so nothing consumes the queue.
	recorder.RecordPageView("p1", events.Client{})
	recorder.RecordPageView("p1", events.Client{})
	recorder.RecordPageView("p1", events.Client{})

	require.NoError(t, recorder.Start())
	recorder.Stop()

	assert.Len(t, writer.all(), 1)
}

func TestRecorderLogsDropReason(t *testing.T) {
	t.Run("queue full", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		recorder := events.NewRecorder(&memoryWriter{}, logger, 1, 1)

		recorder.RecordPageView("p1", events.Client{})
		recorder.RecordPageView("p1", events.Client{})

		assert.Contains(t, logs.String(), "Event queue full")
		assert.NotContains(t, logs.String(), "Event recorder stopped, dropping event")

		require.NoError(t, recorder.Start())
		recorder.Stop()
	})

	t.Run("after stop", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		writer := &memoryWriter{}
		recorder := events.NewRecorder(writer, logger, 1, 10)
		require.NoError(t, recorder.Start())
		recorder.Stop()

		recorder.RecordPageView("p1", events.Client{})

		assert.Contains(t, logs.String(), "Event recorder stopped, dropping event")
		assert.NotContains(t, logs.String(), "Event queue full")
		assert.Empty(t, writer.all())
	})
}

func TestRecorderDoesNotBlockOnSlowWriter(t *testing.T) {
	release := make(chan struct{})
	writer := new(MockWriter)
	writer.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { <-release }).
		Return(nil)

	recorder := events.NewRecorder(writer, testsupport.GetLogger(), 1, 2)
	require.NoError(t, recorder.Start())

	begin := time.Now()
	for i := 0; i < 20; i++ {
		recorder.RecordLinkClick("p1", "L1", events.Client{UserAgent: "iPhone"})
	}
	assert.Less(t, time.Since(begin), 500*time.Millisecond)

	close(release)
	recorder.Stop()
}

func TestRecorderWithStore(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store := events.NewStore(dbManager, logger)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	recorder := events.NewRecorder(store, logger, 1, 10, events.WithClock(fixedClock(now)))
	require.NoError(t, recorder.Start())
	recorder.RecordPageView("p1", events.Client{UserAgent: "Mozilla/5.0 (iPhone)", IPAddress: "127.0.0.1"})
	recorder.RecordLinkClick("p1", "L1", events.Client{UserAgent: "Mozilla/5.0 (X11; Linux x86_64)"})
	recorder.Stop()

	stored, err := store.Query(context.Background(), "p1", nil, nil)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, e := range stored {
		assert.Equal(t, now, e.CreatedAt)
		assert.NotEmpty(t, e.ID)
	}
}
