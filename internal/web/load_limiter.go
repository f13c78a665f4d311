package web

// load_limiter.go bounds how many table sources are loaded at once.
//
// Opening a session or reloading one runs the table's Load function, which
// for database tables is a full query. A semaphore caps parallel loads;
// callers that cannot get a slot within the wait fail with ErrTooManyLoads.
// WaitForDrain lets shutdown wait for loads already running.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyLoads is returned when every load slot stayed busy for the
// whole wait.
var ErrTooManyLoads = errors.New("too many concurrent table loads, please try again later")

// Defaults used when the configured values are not positive.
const (
	DefaultMaxLoads = 4
	DefaultLoadWait = 10 * time.Second
)

// LoadLimiter is a counting semaphore around source loads.
type LoadLimiter struct {
	slots chan struct{}
	wait  time.Duration

	mu     sync.RWMutex
	active int
}

// NewLoadLimiter allows at most n loads at once, each waiting up to wait
// for a slot.
func NewLoadLimiter(n int, wait time.Duration) *LoadLimiter {
	if n <= 0 {
		n = DefaultMaxLoads
	}
	if wait <= 0 {
		wait = DefaultLoadWait
	}
	return &LoadLimiter{
		slots: make(chan struct{}, n),
		wait:  wait,
	}
}

// Acquire takes a slot. Every nil return must be paired with Release.
func (l *LoadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyLoads
	}
}

// Release frees a slot taken by Acquire.
func (l *LoadLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// Do runs fn while holding a slot.
func (l *LoadLimiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// Active returns the number of loads in flight.
func (l *LoadLimiter) Active() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no load is running or ctx is done.
func (l *LoadLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LoadLimiterStatus is the JSON view of a limiter.
type LoadLimiterStatus struct {
	Active    int `json:"active"`
	Available int `json:"available"`
	Max       int `json:"max"`
}

// Status reports current usage for /api/status.
func (l *LoadLimiter) Status() LoadLimiterStatus {
	return LoadLimiterStatus{
		Active:    l.Active(),
		Available: cap(l.slots) - len(l.slots),
		Max:       cap(l.slots),
	}
}
