// Package retry provides the bounded exponential backoff policy used by
// every remote service client.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"codeberg.org/snonux/smartdeck/internal/svcerr"
)

// ErrExhausted is wrapped into the error returned once every attempt failed
// transiently.
var ErrExhausted = errors.New("retries exhausted")

// Policy describes how often and how patiently a call is retried. Only
// errors classified as svcerr.TransientServiceError are retried.
type Policy struct {
	MaxAttempts int           // total attempts including the first one
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // upper bound for a single delay
	Jitter      float64       // randomization factor in [0,1]

	// Notify is called before each retry sleep when set.
	Notify func(err error, wait time.Duration)
}

// DefaultPolicy makes three attempts with 1s and 2s delays.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    8 * time.Second,
		Jitter:      0.2,
	}
}

// WithNotify returns a copy of p reporting retries to fn.
func (p Policy) WithNotify(fn func(err error, wait time.Duration)) Policy {
	p.Notify = fn
	return p
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	maxDelay := p.MaxDelay
	if maxDelay < base {
		maxDelay = base
	}
	jitter := p.Jitter
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = base
	eb.Multiplier = 2
	eb.MaxInterval = maxDelay
	eb.RandomizationFactor = jitter
	eb.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)
}

// Do runs op until it succeeds, returns a non-transient error, or the
// attempt budget is spent. An exhausted budget is reported as a
// svcerr.PermanentServiceError so transient errors never escape the client.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue is Do for operations returning a value.
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := 0
	res, err := backoff.RetryNotifyWithData(func() (T, error) {
		attempts++
		v, err := op(ctx)
		if err != nil && !svcerr.IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, p.backOff(ctx), p.Notify)

	if err == nil {
		return res, nil
	}
	var transient *svcerr.TransientServiceError
	if errors.As(err, &transient) {
		return res, &svcerr.PermanentServiceError{
			Service:    transient.Service,
			Op:         transient.Op,
			StatusCode: transient.StatusCode,
			Err:        fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, transient.Err),
		}
	}
	return res, err
}

// Exhausted reports whether err is the result of a spent retry budget.
func Exhausted(err error) bool {
	return errors.Is(err, ErrExhausted)
}
