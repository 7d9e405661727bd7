package model

import "errors"

var (
	ErrClassNotFound       = errors.New("class not found")
	ErrClassAlreadyStarted = errors.New("class already started")
	ErrDuplicateBooking    = errors.New("duplicate booking")
	ErrNoSlotsAvailable    = errors.New("no slots available")

	// ErrStoreFailure marks an unexpected store error. Callers must not leak
	// its details to clients.
	ErrStoreFailure = errors.New("store failure")
)
