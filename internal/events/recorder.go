package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"linkbio/internal/pkg/async"
)

const (
	defaultDrainTimeout = 5 * time.Second
	writeTimeout        = 10 * time.Second
)

// Client identifies the visitor's client for a recorded event.
type Client struct {
	UserAgent string
	IPAddress string
}

// Recorder turns visitor interactions into stored events without making the
// visitor wait. Failures are logged and never reach the caller.
type Recorder struct {
	writer       Writer
	logger       *slog.Logger
	dispatcher   *async.Dispatcher
	now          func() time.Time
	newID        func() string
	drainTimeout time.Duration
}

type RecorderOption func(*Recorder)

// WithClock replaces the wall clock used to stamp events.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithIDGenerator replaces the event id generator.
func WithIDGenerator(newID func() string) RecorderOption {
	return func(r *Recorder) {
		r.newID = newID
	}
}

// WithDrainTimeout bounds how long Stop waits for queued events.
func WithDrainTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.drainTimeout = d
	}
}

func NewRecorder(writer Writer, logger *slog.Logger, workers, queueSize int, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		writer:       writer,
		logger:       logger,
		dispatcher:   async.NewDispatcher(workers, queueSize),
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
		drainTimeout: defaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordPageView records a visit to the profile page.
func (r *Recorder) RecordPageView(profileID string, client Client) {
	r.Record(profileID, PageView{}, client)
}

// RecordLinkClick records a click on one of the profile's links.
func (r *Recorder) RecordLinkClick(profileID, linkID string, client Client) {
	r.Record(profileID, LinkClick{LinkID: linkID}, client)
}

// Record classifies the client, stamps the event and queues it for storage.
// It returns immediately; a full queue drops the event.
func (r *Recorder) Record(profileID string, action Action, client Client) {
	if profileID == "" {
		r.logger.Warn("Dropping event without profile id", slog.Any("action", action))
		return
	}
	if action == nil {
		action = PageView{}
	}
	if click, ok := action.(LinkClick); ok && click.LinkID == "" {
		r.logger.Warn("Dropping link click without link id", slog.String("profile_id", profileID))
		return
	}

	ip := client.IPAddress
	if ip == "" {
		ip = UnknownIPAddress
	}

	evt := Event{
		ID:         r.newID(),
		ProfileID:  profileID,
		Action:     action,
		DeviceType: ClassifyDevice(client.UserAgent),
		UserAgent:  client.UserAgent,
		IPAddress:  ip,
		CreatedAt:  r.now().UTC(),
	}

	err := r.dispatcher.TrySubmit(func(ctx context.Context) {
		r.write(ctx, evt)
	})
	switch {
	case errors.Is(err, async.ErrStopped):
		r.logger.Warn("Event recorder stopped, dropping event",
			slog.String("profile_id", evt.ProfileID),
			slog.String("event_type", string(evt.Type())))
	case err != nil:
		r.logger.Warn("Event queue full, dropping event",
			slog.String("profile_id", evt.ProfileID),
			slog.String("event_type", string(evt.Type())))
	}
}

func (r *Recorder) write(ctx context.Context, evt Event) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := r.writer.Insert(ctx, evt); err != nil {
		r.logger.Error("Failed to record event",
			slog.String("profile_id", evt.ProfileID),
			slog.String("event_type", string(evt.Type())),
			slog.Any("error", err))
		return
	}
	r.logger.Debug("Recorded event",
		slog.String("id", evt.ID),
		slog.String("event_type", string(evt.Type())),
		slog.String("device_type", string(evt.DeviceType)))
}

// Start launches the write workers.
// Implements cartridge.BackgroundWorker interface.
func (r *Recorder) Start() error {
	r.logger.Info("Starting event recorder")
	r.dispatcher.Start()
	return nil
}

// Stop drains queued events within the drain timeout.
// Implements cartridge.BackgroundWorker interface.
func (r *Recorder) Stop() {
	r.logger.Info("Stopping event recorder", slog.Int("pending", r.dispatcher.Pending()))
	if err := r.dispatcher.Stop(r.drainTimeout); err != nil {
		r.logger.Warn("Event recorder stopped before draining", slog.Any("error", err))
	}
}

// Pending returns the number of queued events not yet handed to a worker.
func (r *Recorder) Pending() int {
	return r.dispatcher.Pending()
}
