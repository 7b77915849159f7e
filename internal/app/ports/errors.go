// Package ports declares what the use cases need from storage, the
// character service and metrics. Adapters under internal/adapter satisfy
// these interfaces.
package ports

import "errors"

var (
	// ErrNotFound is returned for a save slot, event log or task id that
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the save slot moved past the version the caller
	// last read. Reload the slot before saving again.
	ErrConflict = errors.New("save version conflict")
)
