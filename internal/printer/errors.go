package printer

import (
	"errors"
	"fmt"
)

// Error taxonomy of the connection layer. All are returned, never thrown;
// callers branch with errors.Is.
var (
	// ErrPermissionDenied: the wireless stack refused access before any
	// discovery could start. Fatal for the call, not the session.
	ErrPermissionDenied = errors.New("wireless permission denied")

	// ErrNotConnected: an operation needing a live link ran without one
	ErrNotConnected = errors.New("printer not connected")

	// ErrConnectFailed: the transport rejected the connect, or accepted it
	// and then failed re-verification
	ErrConnectFailed = errors.New("connect failed")

	// ErrBusy: discovery and connect are mutually exclusive; a second
	// concurrent operation is rejected, not queued
	ErrBusy = errors.New("another printer operation is in progress")

	// ErrWriteFailed: the link rejected a byte send; treated as a dropped
	// connection
	ErrWriteFailed = errors.New("transport write rejected")
)

// BatchError reports a batch print stopped mid-way. Completed counts the
// labels fully sent before the failure so the caller can resume the rest.
type BatchError struct {
	Completed int
	Err       error
}

// Error implements the error interface
func (e *BatchError) Error() string {
	return fmt.Sprintf("batch stopped after %d label(s): %v", e.Completed, e.Err)
}

// Unwrap exposes the underlying failure
func (e *BatchError) Unwrap() error {
	return e.Err
}
