// Package reconcile binds the generic engine in core/reconcile to classroom
// entities.
//
// BuildPlan compares a snapshot with a teacher's persisted state and produces
// an ImportPlan without writing anything. A Session then applies the plan in
// entity groups, one transaction each:
//
//	teacher -> classrooms -> per classroom: enrollments -> assignments -> submissions
//
// A failed group rolls back alone. Groups committed before it stay committed.
//
// # Submissions
//
// A changed submission whose latest version has no grade is corrected in
// place. A graded one gets a new version and the graded version is left as
// it was. With Policy.PatchCosmeticChanges, a graded version whose gradable
// payload (content, attachments, submittedAt) is unchanged is patched instead.
//
// Snapshot grades are recorded only when no version of the submission was ever
// graded, so reconciliation never overwrites grading done in the application.
package reconcile
