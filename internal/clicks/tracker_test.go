package clicks

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCounter struct {
	mu      sync.Mutex
	counts  map[string]int
	err     error
	release chan struct{}
	ctxErrs []error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: make(map[string]int)}
}

func (c *fakeCounter) IncrementClickCount(ctx context.Context, slug string) error {
	if c.release != nil {
		<-c.release
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ctxErrs = append(c.ctxErrs, ctx.Err())

	if c.err != nil {
		return c.err
	}

	c.counts[slug]++
	return nil
}

func (c *fakeCounter) count(slug string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counts[slug]
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestTracker_Track(t *testing.T) {
	t.Run("counts every visit", func(t *testing.T) {
		counter := newFakeCounter()
		tracker := NewTracker(counter, newTestLogger(new(bytes.Buffer)))

		for i := 0; i < 25; i++ {
			tracker.Track(context.Background(), "promo")
		}
		tracker.Wait()

		assert.Equal(t, 25, counter.count("promo"))
	})

	t.Run("survives request cancellation", func(t *testing.T) {
		counter := newFakeCounter()
		counter.release = make(chan struct{})
		tracker := NewTracker(counter, newTestLogger(new(bytes.Buffer)))

		ctx, cancel := context.WithCancel(context.Background())
		tracker.Track(ctx, "promo")
		cancel()
		close(counter.release)
		tracker.Wait()

		assert.Equal(t, 1, counter.count("promo"))
		assert.Equal(t, []error{nil}, counter.ctxErrs)
	})

	t.Run("logs failures", func(t *testing.T) {
		var buf bytes.Buffer
		counter := newFakeCounter()
		counter.err = errors.New("unknown error")
		tracker := NewTracker(counter, newTestLogger(&buf))

		tracker.Track(context.Background(), "promo")
		tracker.Wait()

		assert.Zero(t, counter.count("promo"))
		assert.Contains(t, buf.String(), "failed to increment click count")
		assert.Contains(t, buf.String(), "unknown error")
	})

	t.Run("drops visits over the in-flight bound", func(t *testing.T) {
		var buf bytes.Buffer
		counter := newFakeCounter()
		counter.release = make(chan struct{})
		tracker := NewTracker(counter, newTestLogger(&buf), WithMaxInFlight(1))

		tracker.Track(context.Background(), "promo")
		tracker.Track(context.Background(), "promo")
		close(counter.release)
		tracker.Wait()

		assert.Equal(t, 1, counter.count("promo"))
		assert.Contains(t, buf.String(), "click increment dropped")
	})

	t.Run("applies timeout", func(t *testing.T) {
		counter := &deadlineCounter{}
		tracker := NewTracker(counter, newTestLogger(new(bytes.Buffer)), WithTimeout(time.Second))

		tracker.Track(context.Background(), "promo")
		tracker.Wait()

		assert.True(t, counter.hadDeadline)
	})
}

type deadlineCounter struct {
	hadDeadline bool
}

func (c *deadlineCounter) IncrementClickCount(ctx context.Context, _ string) error {
	_, c.hadDeadline = ctx.Deadline()
	return nil
}
