// Package slot serializes media-heavy work behind a single process-wide slot.
// Waiters are served in arrival order.
package slot

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrSlotTimeout is returned when Acquire gives up waiting.
var ErrSlotTimeout = errors.New("timed out waiting for the media processing slot")

// Observer receives slot wait metrics. Either field may be nil.
type Observer struct {
	Waited  func(d time.Duration)
	Waiters func(n int)
}

// Slot is a process-wide binary semaphore guarding heavy media work.
// Waiters are granted the slot in the order they called Acquire.
type Slot struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	held    atomic.Bool
	waiting atomic.Int64
	obs     Observer
}

type Option func(*Slot)

// WithTimeout bounds how long Acquire waits. Zero or negative waits forever.
func WithTimeout(d time.Duration) Option {
	return func(s *Slot) { s.timeout = d }
}

func WithObserver(o Observer) Option {
	return func(s *Slot) { s.obs = o }
}

func New(opts ...Option) *Slot {
	s := &Slot{sem: semaphore.NewWeighted(1)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Acquire blocks until the caller is the sole holder. It returns
// ErrSlotTimeout when the configured timeout elapses first, or the context's
// error when ctx is done.
func (s *Slot) Acquire(ctx context.Context) error {
	start := time.Now()
	s.reportWaiters(s.waiting.Add(1))

	waitCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := s.sem.Acquire(waitCtx, 1)
	s.reportWaiters(s.waiting.Add(-1))
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return ErrSlotTimeout
		}
		return err
	}

	s.held.Store(true)
	if s.obs.Waited != nil {
		s.obs.Waited(time.Since(start))
	}
	return nil
}

// Release hands the slot to the next waiter, if any.
func (s *Slot) Release() {
	s.held.Store(false)
	s.sem.Release(1)
}

// Held reports whether some caller currently owns the slot.
func (s *Slot) Held() bool { return s.held.Load() }

// Waiting reports how many callers are blocked in Acquire.
func (s *Slot) Waiting() int { return int(s.waiting.Load()) }

// Do runs fn while holding the slot. The slot is released however fn exits.
func (s *Slot) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.Acquire(ctx); err != nil {
		return err
	}
	defer s.Release()
	return fn(ctx)
}

func (s *Slot) reportWaiters(n int64) {
	if s.obs.Waiters != nil {
		s.obs.Waiters(int(n))
	}
}
