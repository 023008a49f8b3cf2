package project

import (
	"errors"
	"fmt"
)

// ErrRegionNotFound is returned when no region matches a row number.
var ErrRegionNotFound = errors.New("region not found")

// ErrRegionDeleted is returned when an edit targets a soft-deleted region.
var ErrRegionDeleted = errors.New("region is deleted")

// ErrUnknownProfile is returned when switching to a profile that does not exist.
var ErrUnknownProfile = errors.New("unknown profile")

// ErrManualSlotsExhausted is returned when all nine fractional positions
// between two consecutive integer rows are already taken.
var ErrManualSlotsExhausted = errors.New("no free manual row numbers between these rows")

// LoadError wraps any failure while opening a project archive. The caller
// sees no partial state: either the whole project loads or none of it does.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load project %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError wraps an archive write failure. In-memory project state is left
// unchanged when it occurs.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save project %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
