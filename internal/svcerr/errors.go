// Package svcerr holds the error taxonomy shared by the remote service
// clients and the card generation core.
package svcerr

import (
	"errors"
	"fmt"
)

// TransientServiceError is a retryable failure: timeouts, 5xx answers,
// rate limiting and network errors.
type TransientServiceError struct {
	Service    string
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: transient failure (status %d): %v", e.Service, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: transient failure: %v", e.Service, e.Op, e.Err)
}

func (e *TransientServiceError) Unwrap() error { return e.Err }

// PermanentServiceError is a failure that retrying cannot fix: bad
// credentials, invalid input, an exhausted quota or an unusable response.
type PermanentServiceError struct {
	Service    string
	Op         string
	StatusCode int
	Err        error
}

func (e *PermanentServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %v (status %d)", e.Service, e.Op, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *PermanentServiceError) Unwrap() error { return e.Err }

// ReconciliationError reports a note store state that cannot be resolved
// safely, e.g. several notes matching one word.
type ReconciliationError struct {
	Word    string
	Matches []int64
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("ambiguous store state for %q: %d matching notes %v", e.Word, len(e.Matches), e.Matches)
}

// StoreUnavailableError means the note store could not be reached at all.
type StoreUnavailableError struct {
	URL string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("note store unavailable at %s: %v", e.URL, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// ErrQuotaExhausted marks a rate limit answer that will not recover within
// the current run.
var ErrQuotaExhausted = errors.New("quota exhausted")

// Transient wraps err as a TransientServiceError.
func Transient(service, op string, status int, err error) error {
	return &TransientServiceError{Service: service, Op: op, StatusCode: status, Err: err}
}

// Permanent wraps err as a PermanentServiceError.
func Permanent(service, op string, status int, err error) error {
	return &PermanentServiceError{Service: service, Op: op, StatusCode: status, Err: err}
}

// IsTransient reports whether err is, or wraps, a TransientServiceError.
func IsTransient(err error) bool {
	var t *TransientServiceError
	return errors.As(err, &t)
}

// IsPermanent reports whether err is, or wraps, a PermanentServiceError.
func IsPermanent(err error) bool {
	var p *PermanentServiceError
	return errors.As(err, &p)
}

// IsStoreUnavailable reports whether err is, or wraps, a StoreUnavailableError.
func IsStoreUnavailable(err error) bool {
	var s *StoreUnavailableError
	return errors.As(err, &s)
}

// IsReconciliation reports whether err is, or wraps, a ReconciliationError.
func IsReconciliation(err error) bool {
	var r *ReconciliationError
	return errors.As(err, &r)
}
