// Package reconcile provides a generic plan-then-apply engine for merging an
// incoming set of entities into persisted state.
//
// # Architecture
//
// An Adapter holds the entity-specific logic: it extracts natural keys from both
// sides and compares normalized fields.
//
// BuildPlan computes the union of keys and assigns each one an Outcome (create,
// update, unchanged, absent or conflict). Planning is pure, so the diff preview
// can reuse it without touching storage.
//
// ApplyPlan walks the plan through a Mutator and returns Counters plus the
// per-key errors. Callers wrap it in one transaction per entity group.
//
// # Errors
//
// ConflictError, VersioningInvariantViolation and SkipError are scoped to a
// single key and never abort a group. Anything else does, and callers report
// the rolled back group as a PartialWriteError.
//
// # Usage Example
//
//	plan := reconcile.BuildPlan[*models.Enrollment, snapshot.Student](enrollmentAdapter{}, stored, roster)
//	counters, entityErrs, err := reconcile.ApplyPlan(ctx, plan, mutator)
package reconcile
