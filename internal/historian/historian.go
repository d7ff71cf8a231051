// Package historian drains the action queue written by the room server and persists it in batches.
package historian

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/sirupsen/logrus"
)

// Source yields queued action records. Implemented by cache.ActionQueue.
type Source interface {
	PopAction(ctx context.Context, timeout time.Duration) (cache.ActionRecord, bool, error)
}

// Sink stores action batches. Implemented by database.ActionStore.
type Sink interface {
	InsertActions(ctx context.Context, records []cache.ActionRecord) error
	MarkAbandoned(ctx context.Context, roomID uuid.UUID) error
}

// Options tune batching. Zero values take the defaults in New.
type Options struct {
	BatchSize   int
	FlushDelay  time.Duration
	PollTimeout time.Duration
	// Inactivity is how long a room may go without actions before its game is marked abandoned.
	Inactivity      time.Duration
	InactivityCheck time.Duration
}

// Service moves records from Source to Sink. A batch is flushed when it reaches BatchSize or when
// FlushDelay has passed since the last flush, whichever comes first.
type Service struct {
	source Source
	sink   Sink
	logger *logrus.Logger
	opts   Options

	batch        []cache.ActionRecord
	lastActivity map[uuid.UUID]time.Time
	now          func() time.Time
}

func New(source Source, sink Sink, logger *logrus.Logger, opts Options) *Service {
	if opts.BatchSize < 1 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 3 * time.Second
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.InactivityCheck <= 0 {
		opts.InactivityCheck = time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		source:       source,
		sink:         sink,
		logger:       logger,
		opts:         opts,
		batch:        make([]cache.ActionRecord, 0, opts.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
		now:          time.Now,
	}
}

// Run processes the queue until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("uno-historian service started.")
	defer s.logger.Info("uno-historian shutting down.")

	lastFlush := s.now()
	lastCheck := s.now()
	for {
		if ctx.Err() != nil {
			s.shutdownFlush()
			return nil
		}

		record, ok, err := s.source.PopAction(ctx, s.opts.PollTimeout)
		switch {
		case err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled)):
			// cancelled mid-pop
		case err != nil:
			s.logger.WithError(err).Warn("failed to pop action")
			select {
			case <-ctx.Done():
			case <-time.After(s.opts.PollTimeout):
			}
		case ok:
			s.lastActivity[record.RoomID] = s.now()
			s.batch = append(s.batch, record)
		}

		now := s.now()
		if len(s.batch) >= s.opts.BatchSize || now.Sub(lastFlush) >= s.opts.FlushDelay {
			s.flush(ctx)
			lastFlush = now
		}
		if now.Sub(lastCheck) >= s.opts.InactivityCheck {
			s.reapInactive(ctx, now)
			lastCheck = now
		}
	}
}

// flush writes the pending batch. A failed batch stays pending and is retried with the next flush.
func (s *Service) flush(ctx context.Context) {
	if len(s.batch) == 0 {
		return
	}
	if err := s.sink.InsertActions(ctx, s.batch); err != nil {
		s.logger.WithError(err).Errorf("failed to flush %d actions", len(s.batch))
		return
	}
	s.logger.Debugf("Flushed %d actions to DB.", len(s.batch))
	s.batch = s.batch[:0]
}

func (s *Service) shutdownFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(ctx)
}

func (s *Service) reapInactive(ctx context.Context, now time.Time) {
	for roomID, last := range s.lastActivity {
		if now.Sub(last) <= s.opts.Inactivity {
			continue
		}
		if err := s.sink.MarkAbandoned(ctx, roomID); err != nil {
			s.logger.WithError(err).Warnf("failed to mark room %v abandoned", roomID)
			continue
		}
		delete(s.lastActivity, roomID)
		s.logger.Infof("Marked room %v as 'abandoned' due to inactivity.", roomID)
	}
}

// Pending is the number of records not yet flushed.
func (s *Service) Pending() int {
	return len(s.batch)
}
