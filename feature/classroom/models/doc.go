// Package models defines the persisted classroom entities and their
// conversions to and from snapshot values.
//
// Identity follows natural keys: teachers by email, classrooms by external ID,
// enrollments by (classroom, student), assignments by (classroom, external ID)
// and submissions by (assignment, external ID) plus a version number.
// Row IDs are UUIDs and never leave the database as matching keys.
package models
