package core

import "errors"

// Error kinds recognised at the provider boundary. The tag dictionary layer
// wraps them; providers match with errors.Is and turn them into empty results
// or false.
var (
	ErrFileUnavailable        = errors.New("metadata container unavailable")
	ErrInvalidKey             = errors.New("invalid key")
	ErrWriteFailure           = errors.New("write failure")
	ErrOrientationUnsupported = errors.New("orientation unsupported")
)

// Registry errors.
var (
	ErrBackendRegistered = errors.New("metadata backend already registered")
	ErrNoBackend         = errors.New("no metadata backend registered")
)
