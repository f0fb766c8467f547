package sync

import (
	"errors"
	"fmt"
)

var (
	// ErrDisabled returned to completions when sync is not started
	ErrDisabled = errors.New("sync is not enabled")

	// ErrClosed returned when the engine is closed
	ErrClosed = errors.New("sync engine is closed")

	// ErrCancelled returned to completions of operations dropped by Stop or a permanent fault
	ErrCancelled = errors.New("sync operation cancelled")

	// ErrForeignNotification returned when a push payload belongs to another subscription
	ErrForeignNotification = errors.New("notification does not belong to this subscription")
)

// FaultError is a permanent sync failure delivered to Callbacks.OnFault.
// Sync stays halted after a permanent fault until Start, AccountChanged or ResetState.
type FaultError struct {
	Err  error
	Op   string
	Kind Kind
}

// Error implements the error interface.
func (e *FaultError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying remote error.
func (e *FaultError) Unwrap() error {
	return e.Err
}

// IsZoneDeleted reports whether err means the sync zone no longer exists remotely.
func IsZoneDeleted(err error) bool {
	return Classify(err).Kind == KindZoneDeleted
}

// IsAccountProblem reports whether err means the remote account is unusable.
func IsAccountProblem(err error) bool {
	return Classify(err).Kind == KindAccount
}
