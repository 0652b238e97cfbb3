// Package importer orchestrates a snapshot import.
//
// A run moves through validating, diffing (optional), reconciling and
// aggregating before it is done, or it fails. Validation and lock failures
// abort before anything is written. Once reconciling starts, failures are
// reported per group and per entity and the run still completes; re-running
// the same snapshot is always safe.
//
// Imports for one teacher are serialized through a lock.Locker keyed by the
// teacher email. Classrooms of one import are reconciled by a bounded pool.
//
// # Usage
//
//	imp := importer.New(st, locker, publisher, recorder, logger, importer.OptionsFromConfig(cfg.Import))
//	result, err := imp.Import(ctx, snap)
package importer
