package offline

import "errors"

var (
	// ErrNotFound is returned by Bucket.Match when no entry exists for a key.
	ErrNotFound = errors.New("offline: no cached response for key")

	// ErrInstallFailed wraps the first asset failure of an install.
	ErrInstallFailed = errors.New("offline: install failed")

	// ErrActivateFailed wraps the first bucket deletion failure of an activate.
	ErrActivateFailed = errors.New("offline: activate failed")

	// ErrRedundant is returned for events submitted to a redundant worker.
	ErrRedundant = errors.New("offline: worker is redundant")

	// ErrInvalidTransition is returned when a lifecycle event does not apply
	// to the worker's current state (e.g. activate before install).
	ErrInvalidTransition = errors.New("offline: invalid lifecycle transition")

	// ErrNoInstalledBucket is returned by a restore when storage holds no
	// usable bucket for the version.
	ErrNoInstalledBucket = errors.New("offline: no installed bucket")

	// ErrStopped is returned when the scheduler loop is not running.
	ErrStopped = errors.New("offline: worker scheduler stopped")
)
