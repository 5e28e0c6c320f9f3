package types

import "errors"

// Sentinel errors for the cleanup and statistics pipelines. Filesystem
// failures (permission denied, not found) are wrapped os errors and should
// be tested with errors.Is against fs.ErrPermission / fs.ErrNotExist.
var (
	// ErrSafetyViolation means a cleanup target failed the safety filter
	// chain and must never be deleted.
	ErrSafetyViolation = errors.New("cleanup target failed safety checks")

	// ErrNotConfirmed means deletion was requested without confirmation
	// and auto-cleanup does not apply.
	ErrNotConfirmed = errors.New("deletion not confirmed")

	// ErrInsufficientData means a statistics operation needs more samples.
	// Callers treat this as a valid status, not a failure.
	ErrInsufficientData = errors.New("not enough samples")
)
