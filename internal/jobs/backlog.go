package jobs

import (
	"context"
	"log/slog"
	"time"
)

// QueueReporter exposes the number of events waiting to be written.
type QueueReporter interface {
	Pending() int
}

// BacklogJob reports the recorder queue depth so that a saturated recorder
// shows up in the logs before events start being dropped.
type BacklogJob struct {
	queue     QueueReporter
	logger    *slog.Logger
	interval  time.Duration
	threshold int
}

func NewBacklogJob(queue QueueReporter, logger *slog.Logger, interval time.Duration, queueSize int) *BacklogJob {
	threshold := queueSize / 2
	if threshold < 1 {
		threshold = 1
	}
	return &BacklogJob{
		queue:     queue,
		logger:    logger,
		interval:  interval,
		threshold: threshold,
	}
}

func (j *BacklogJob) Name() string {
	return "recorder_backlog"
}

func (j *BacklogJob) Interval() time.Duration {
	return j.interval
}

func (j *BacklogJob) Run(_ context.Context) error {
	pending := j.queue.Pending()
	switch {
	case pending >= j.threshold:
		j.logger.Warn("Event recorder backlog is high",
			slog.Int("pending", pending),
			slog.Int("threshold", j.threshold))
	case pending > 0:
		j.logger.Debug("Event recorder backlog", slog.Int("pending", pending))
	}
	return nil
}
