package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Default rate budget: 10 requests per second.
const (
	DefaultRequests = 10
	DefaultPeriod   = time.Second
)

// RateLimiter is the process-wide gate shared by every fetch. At most
// requests acquisitions are granted per period.
//
// The bucket holds a single token refilled every period/requests, which
// spaces grants evenly. The times of the last requests grants are kept in a
// ring, and a grant is only handed out once the oldest of them is at least
// period old, so any window of length period sees at most requests grants
// as observed by callers.
type RateLimiter struct {
	limiter  *rate.Limiter
	requests int
	period   time.Duration
	acquired atomic.Int64

	mu     sync.Mutex
	grants []time.Time
	next   int
}

// NewRateLimiter creates a limiter allowing requests per period.
func NewRateLimiter(requests int, period time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = DefaultRequests
	}

	if period <= 0 {
		period = DefaultPeriod
	}

	// round the interval up so truncation never lets an extra grant into a window
	n := time.Duration(requests)
	interval := (period + n - 1) / n

	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		requests: requests,
		period:   period,
		grants:   make([]time.Time, requests),
	}
}

// Acquire blocks until a grant is available and records it. It returns the
// context error if ctx ends first; no grant is recorded in that case.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	_, err := r.acquire(ctx)

	return err
}

// acquire returns the time at which the grant was recorded.
func (r *RateLimiter) acquire(ctx context.Context) (time.Time, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return time.Time{}, err
	}

	for {
		at, wait, ok := r.tryGrant()
		if ok {
			r.acquired.Add(1)

			return at, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()

			return time.Time{}, ctx.Err()
		case <-timer.C:
		}
	}
}

// tryGrant records a grant now if the oldest of the last requests grants
// has left the window. Otherwise it reports how long until it does. The
// clock is read under the lock so recorded grants are ordered.
func (r *RateLimiter) tryGrant() (time.Time, time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	oldest := r.grants[r.next]
	if !oldest.IsZero() {
		if age := now.Sub(oldest); age < r.period {
			return time.Time{}, r.period - age, false
		}
	}

	r.grants[r.next] = now
	r.next = (r.next + 1) % len(r.grants)

	return now, 0, true
}

// Acquired returns the number of grants handed out so far.
func (r *RateLimiter) Acquired() int64 {
	return r.acquired.Load()
}

// Requests returns the per-period budget.
func (r *RateLimiter) Requests() int {
	return r.requests
}

// Period returns the budget window.
func (r *RateLimiter) Period() time.Duration {
	return r.period
}
