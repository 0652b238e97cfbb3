// Package stats aggregates a teacher's persisted classroom data.
//
// Aggregates run strictly after reconciliation and read only latest
// submission versions. The average grade is nil, not zero, when nothing is graded.
package stats
