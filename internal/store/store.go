package store

import (
	"errors"
)

// Sentinel errors shared by all store implementations.
var (
	// ErrStorageUnavailable is returned when the backing store cannot be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
