package domain

import "errors"

// Domain errors represent error conditions in the wormhole domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidIdentifier is returned when a channel or identifier is empty or
	// cannot be mapped to a single file name inside the channel directory.
	ErrInvalidIdentifier = errors.New("wormhole: invalid identifier")

	// ErrNotFound is returned when a read or delete target does not exist.
	// It is an expected outcome, not a failure of the transport.
	ErrNotFound = errors.New("wormhole: not found")

	// ErrCorruptManifest is returned when a manifest file exists but cannot be decoded.
	ErrCorruptManifest = errors.New("wormhole: corrupt manifest")

	// ErrIO wraps underlying read, write or delete failures other than absence.
	ErrIO = errors.New("wormhole: i/o failure")

	// ErrTimeout is returned when file coordination could not be acquired in time.
	ErrTimeout = errors.New("wormhole: coordination timeout")

	// ErrAlreadyExists is returned by a fail-if-exists write whose target is present.
	ErrAlreadyExists = errors.New("wormhole: already exists")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("wormhole: invalid configuration")
)
