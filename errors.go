package invoiceflow

import "errors"

var (
	// Store errors.
	ErrNoStore     = errors.New("invoiceflow: no store configured")
	ErrStoreClosed = errors.New("invoiceflow: store closed")

	// Not found errors.
	ErrRunNotFound = errors.New("invoiceflow: run not found")

	// Conflict errors.
	ErrRunAlreadyExists = errors.New("invoiceflow: run already exists")

	// Run-control errors.
	// ErrValidation is fatal: it is raised before the first checkpoint is
	// committed and aborts the run entirely.
	ErrValidation = errors.New("invoiceflow: validation failed")
	// ErrInvalidResume is returned when Resume is called on a run that is
	// not currently suspended (terminated, never suspended, or already
	// resumed by a concurrent caller).
	ErrInvalidResume = errors.New("invoiceflow: run is not suspended")
	// ErrRunTerminated is returned when a terminal run is asked to advance.
	ErrRunTerminated = errors.New("invoiceflow: run already terminated")
	// ErrNotSuspended is returned by Cancel on a run that is not suspended.
	ErrNotSuspended = errors.New("invoiceflow: run is not suspended, cannot cancel")
)
