package apifootball

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind classifies upstream failures. Callers that fan out collection
// calls treat all kinds the same way, but retry policy and the breaker need
// the distinction.
type ErrorKind string

const (
	// ErrorTransient covers network failures, 5xx responses, and rate
	// limiting. Safe to retry.
	ErrorTransient ErrorKind = "transient"

	// ErrorPermanent covers 4xx responses other than rate limiting and
	// provider-reported request errors. Retrying will not help.
	ErrorPermanent ErrorKind = "permanent"

	// ErrorCircuitOpen means the call was short-circuited locally without
	// reaching the provider.
	ErrorCircuitOpen ErrorKind = "circuit_open"
)

// Error is the typed failure returned by every client operation.
type Error struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("apifootball %s: %s (%s, status %d)", e.Endpoint, msg, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("apifootball %s: %s (%s)", e.Endpoint, msg, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, endpoint string, status int, message string, err error) *Error {
	return &Error{
		Kind:       kind,
		Endpoint:   endpoint,
		StatusCode: status,
		Message:    message,
		Err:        err,
	}
}

func kindOf(err error) (ErrorKind, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind, true
	}
	return "", false
}

// IsTransient reports whether err is a retryable upstream failure.
func IsTransient(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == ErrorTransient
}

// IsPermanent reports whether err is a non-retryable upstream rejection.
func IsPermanent(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == ErrorPermanent
}

// IsCircuitOpen reports whether err was short-circuited by the breaker.
func IsCircuitOpen(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == ErrorCircuitOpen
}
