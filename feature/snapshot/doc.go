// Package snapshot defines the external classroom snapshot and everything that
// happens to it before reconciliation.
//
// # Ingestion
//
// Decode reads raw JSON, runs Migrate to bring older documents to
// CurrentSchemaVersion, validates the structure against a JSON schema and
// then validates the typed value. Any failure is a *ValidationError and means
// nothing may be written.
//
// # Normalization
//
// Normalize and its per-entity variants return copies with volatile fields
// removed (fetch and expiry timestamps, submission updatedAt). Canonical
// serializes a value with sorted keys and null members dropped, which is the
// basis of Equal and Diff. Absent and null are the same value.
//
// # Loading
//
// Snapshots can be read from files or from object storage, where they are
// archived under "<prefix>/<teacher email>/<timestamp>.json".
package snapshot
