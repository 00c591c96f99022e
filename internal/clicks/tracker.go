// Package clicks records link visits in the background.
//
// A Tracker runs each click-count increment detached from the request that
// triggered it: the redirect response never waits for the increment and request
// cancellation does not abort it. Increments are best-effort: at most one
// attempt per visit, failures are logged and never retried.
package clicks

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout     = 5 * time.Second
	defaultMaxInFlight = 128
)

type clickCounter interface {
	IncrementClickCount(ctx context.Context, slug string) error
}

// Tracker increments click counters asynchronously.
type Tracker struct {
	counter     clickCounter
	logger      *slog.Logger
	timeout     time.Duration
	maxInFlight int
	g           errgroup.Group
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithTimeout bounds a single increment.
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithMaxInFlight bounds the number of concurrent increments. Visits arriving while
// the bound is reached are not counted.
func WithMaxInFlight(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxInFlight = n
		}
	}
}

// NewTracker returns a Tracker incrementing counters through counter.
func NewTracker(counter clickCounter, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		counter:     counter,
		logger:      logger,
		timeout:     defaultTimeout,
		maxInFlight: defaultMaxInFlight,
	}

	for _, opt := range opts {
		opt(t)
	}

	t.g.SetLimit(t.maxInFlight)

	return t
}

// Track schedules one click-count increment for slug and returns immediately.
// Values carried by ctx are kept, its cancellation is not.
func (t *Tracker) Track(ctx context.Context, slug string) {
	const op = "clicks.Tracker.Track"

	detached := context.WithoutCancel(ctx)

	started := t.g.TryGo(func() error {
		ctx, cancel := context.WithTimeout(detached, t.timeout)
		defer cancel()

		if err := t.counter.IncrementClickCount(ctx, slug); err != nil {
			t.logger.Error("failed to increment click count",
				slog.String("op", op),
				slog.String("slug", slug),
				slog.Any("err", err),
			)
		}

		return nil
	})

	if !started {
		t.logger.Warn("click increment dropped, too many in flight",
			slog.String("op", op),
			slog.String("slug", slug),
			slog.Int("max_in_flight", t.maxInFlight),
		)
	}
}

// Wait blocks until every scheduled increment has finished.
func (t *Tracker) Wait() {
	_ = t.g.Wait()
}
