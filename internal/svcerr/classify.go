package svcerr

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// Classify maps an HTTP status and/or transport error into the taxonomy.
// A zero status means the request never got an answer.
func Classify(service, op string, status int, err error) error {
	if err == nil && status < 400 {
		return nil
	}
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	// Already classified further down.
	if IsTransient(err) || IsPermanent(err) || IsStoreUnavailable(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return Permanent(service, op, status, err)
	}

	switch {
	case status == http.StatusTooManyRequests:
		if errors.Is(err, ErrQuotaExhausted) {
			return Permanent(service, op, status, err)
		}
		return Transient(service, op, status, err)
	case status == http.StatusRequestTimeout, status >= 500:
		return Transient(service, op, status, err)
	case status >= 400:
		return Permanent(service, op, status, err)
	}

	if IsNetworkError(err) {
		return Transient(service, op, status, err)
	}
	return Permanent(service, op, status, err)
}

// IsNetworkError reports whether err came from the transport rather than
// from an answer.
func IsNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
