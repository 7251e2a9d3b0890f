// Package throttle caps the load one run puts on an external service: a
// bound on requests in flight and a per-minute request budget. One Limiter
// is shared by every word of a run for a given service.
package throttle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config describes the limits of one service. Zero values disable the
// respective limit.
type Config struct {
	MaxInFlight       int
	RequestsPerMinute int
}

// Limiter enforces a Config. A nil *Limiter admits everything.
type Limiter struct {
	name     string
	inFlight *semaphore.Weighted
	rate     *rate.Limiter
}

// New creates a limiter for the named service.
func New(name string, cfg Config) *Limiter {
	l := &Limiter{name: name}
	if cfg.MaxInFlight > 0 {
		l.inFlight = semaphore.NewWeighted(int64(cfg.MaxInFlight))
	}
	if cfg.RequestsPerMinute > 0 {
		every := time.Minute / time.Duration(cfg.RequestsPerMinute)
		// Allow a burst of up to the in-flight cap so a single word's
		// parallel requests are not serialised needlessly.
		burst := cfg.MaxInFlight
		if burst < 1 {
			burst = 1
		}
		l.rate = rate.NewLimiter(rate.Every(every), burst)
	}
	return l
}

// Name returns the service name the limiter was created for.
func (l *Limiter) Name() string {
	if l == nil {
		return ""
	}
	return l.name
}

// Acquire blocks until a request may be issued. The returned release func
// must be called once the request has finished.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if l == nil {
		return func() {}, nil
	}
	if l.rate != nil {
		if err := l.rate.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: waiting for rate limit: %w", l.name, err)
		}
	}
	if l.inFlight == nil {
		return func() {}, nil
	}
	if err := l.inFlight.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%s: waiting for request slot: %w", l.name, err)
	}
	return func() { l.inFlight.Release(1) }, nil
}

// Do runs fn while holding a request slot.
func (l *Limiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}
