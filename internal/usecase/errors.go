package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrFixtureNotFound       = errors.New("fixture not found")
	ErrBusy                  = errors.New("analysis already in progress")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrTimeout               = errors.New("collection budget exceeded")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrStoreFailure          = errors.New("store failure")
)
