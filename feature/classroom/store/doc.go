// Package store is the persistence layer for classroom entities.
//
// LoadTeacherState reads a teacher's complete state with one query per table,
// which is what the planner and the statistics aggregator work from. The
// remaining methods serve the submission history and grading endpoints and the
// aggregate write-back that ends an import.
//
// Writes made during reconciliation do not live here; they belong to the
// reconcile session so they share its transactions.
package store
