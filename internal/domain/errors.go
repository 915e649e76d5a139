package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the report lifecycle. The HTTP adapter maps these to
// response codes; callers match with errors.Is.
var (
	// ErrNotFound is returned for an unknown report or profile id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStatus is returned for a status value outside the closed
	// pending/verified/false-alarm set.
	ErrInvalidStatus = errors.New("invalid report status")

	// ErrTransitionNotAllowed is returned when the configured transition
	// table forbids a move between two otherwise valid statuses.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")

	// ErrIneligible is returned when an alert is requested for a report
	// that is not verified.
	ErrIneligible = errors.New("only verified reports can trigger alerts")

	// ErrDuplicateConflict is returned when a verified report of the same
	// hazard already exists within the proximity window.
	ErrDuplicateConflict = errors.New("a verified report of this hazard already exists nearby")
)

// ValidationError describes a missing or malformed submission field. The
// reason string is surfaced directly to the reporter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}
