// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indicates optimistic concurrency failure (base version mismatch).
	ErrVersionConflict = errors.New("version conflict")

	// ErrUnauthorized indicates failed authentication (invalid credential or assertion).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller's role may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., phone already registered).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUserNotFound indicates a one-time code was requested for an unknown contact.
	ErrUserNotFound = errors.New("user not found")

	// ErrCodeInvalid indicates a one-time code that is expired, mismatched or already consumed.
	ErrCodeInvalid = errors.New("code expired or invalid")

	// ErrRecognitionUnavailable indicates the plant recognizer could not produce a label.
	ErrRecognitionUnavailable = errors.New("recognition unavailable")

	// ErrInvalidTransition indicates a batch status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidArgument indicates a request that failed validation before reaching storage.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTimeout indicates an external capability did not answer in time.
	ErrTimeout = errors.New("timeout")
)
