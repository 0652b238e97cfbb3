package reconcile

import (
	"errors"
	"fmt"
)

// ConflictError reports a key that cannot be reconciled without risking data loss,
// such as duplicate natural keys or a concurrent version flip.
type ConflictError struct {
	Entity string
	Key    string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s %s: %s", e.Entity, e.Key, e.Reason)
}

// VersioningInvariantViolation reports an attempt to mutate a graded version in place.
// It is raised instead of writing, never after.
type VersioningInvariantViolation struct {
	SubmissionID string
	Reason       string
}

func (e *VersioningInvariantViolation) Error() string {
	return fmt.Sprintf("versioning invariant violated for submission %s: %s", e.SubmissionID, e.Reason)
}

// SkipError marks a key left untouched on purpose, e.g. a submission whose
// assignment failed to reconcile.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string { return "skipped: " + e.Reason }

// PartialWriteError reports an entity group whose transaction rolled back.
// Groups applied before it stay committed.
type PartialWriteError struct {
	Group string
	Err   error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("group %s rolled back: %v", e.Group, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// IsEntityScoped reports whether err affects only the key it was raised for.
func IsEntityScoped(err error) bool {
	var conflict *ConflictError
	var violation *VersioningInvariantViolation
	var skip *SkipError
	return errors.As(err, &conflict) || errors.As(err, &violation) || errors.As(err, &skip)
}
