package api

import "errors"

var (
	// ErrUnavailable marks transient network failures. A whole sync
	// cycle is safe to retry; progress from prior successful cycles is
	// preserved because cursors only advance after persistence.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized marks an invalid or expired auth token.
	ErrUnauthorized = errors.New("unauthorized")
)
