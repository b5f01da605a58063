package domain

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation runs without an owner bound.
	ErrNotAuthenticated = errors.New("not authenticated: no owner bound")

	// ErrStoreUnavailable wraps transport failures of the backing store.
	// The core never retries them; the caller decides.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMalformedDate is returned when a DateKey cannot be parsed.
	ErrMalformedDate = errors.New("malformed date")

	// ErrSessionDate is returned when an edit targets a date other than the
	// editing session's active date.
	ErrSessionDate = errors.New("edit does not match the active session date")

	// ErrSessionClosed is returned by edits and navigation on an evicted session.
	ErrSessionClosed = errors.New("editing session closed")

	// ErrUnknownBackend is returned for an unsupported store backend name.
	ErrUnknownBackend = errors.New("unknown store backend")
)
