package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrFraming marks a single malformed input unit; the reader skips it.
	ErrFraming = errors.New("malformed input unit")
	// ErrAnnotation marks a whole-document annotation failure.
	ErrAnnotation = errors.New("annotation failed")
	// ErrResource marks an output sink that could not be opened or written.
	ErrResource = errors.New("resource unavailable")
)
