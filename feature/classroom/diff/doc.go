// Package diff previews an import without writing anything.
//
// It runs the same planner the importer uses and reports counts of what would
// change: new and changed classrooms, roster archival, new assignments and
// submissions, and how changed submissions would be written.
package diff
