package store

import "errors"

var (
	// ErrUnknownStore is returned for a name that was never defined.
	ErrUnknownStore = errors.New("store: unknown store")

	// ErrUnknownAction is returned for an action the store does not handle.
	ErrUnknownAction = errors.New("store: unknown action")

	// ErrBadPayload is returned when an action payload does not decode.
	ErrBadPayload = errors.New("store: bad payload")

	// ErrRegistryClosed is returned by lookups on a closed registry.
	ErrRegistryClosed = errors.New("store: registry closed")
)
