package reconcile

import (
	"fmt"

	"classroom-sync/core/reconcile"
	"classroom-sync/feature/classroom/models"
	"classroom-sync/feature/classroom/store"
	"classroom-sync/feature/snapshot"
)

var (
	_ reconcile.Adapter[*models.Teacher, snapshot.Teacher]       = teacherAdapter{}
	_ reconcile.Adapter[*models.Classroom, snapshot.Classroom]   = classroomAdapter{}
	_ reconcile.Adapter[*models.Enrollment, snapshot.Student]    = enrollmentAdapter{}
	_ reconcile.Adapter[*models.Assignment, snapshot.Assignment] = assignmentAdapter{}
	_ reconcile.Adapter[*models.Submission, snapshot.Submission] = submissionAdapter{}
)

type teacherAdapter struct{}

func (teacherAdapter) Name() string { return "teacher" }

func (teacherAdapter) StoredKey(t *models.Teacher) string { return store.NormalizeEmail(t.Email) }

func (teacherAdapter) IncomingKey(t snapshot.Teacher) string { return store.NormalizeEmail(t.Email) }

func (teacherAdapter) CompareFields(stored *models.Teacher, incoming snapshot.Teacher) []string {
	if stored.DisplayName != incoming.DisplayName {
		return []string{fmt.Sprintf("displayName: stored=%q incoming=%q", stored.DisplayName, incoming.DisplayName)}
	}
	return nil
}

type classroomAdapter struct{}

func (classroomAdapter) Name() string { return "classroom" }

func (classroomAdapter) StoredKey(c *models.Classroom) string { return c.ExternalID }

func (classroomAdapter) IncomingKey(c snapshot.Classroom) string { return c.ID }

func (classroomAdapter) CompareFields(stored *models.Classroom, incoming snapshot.Classroom) []string {
	return snapshot.Diff(stored.ToSnapshot(), snapshot.ClassroomFields(incoming))
}

type enrollmentAdapter struct{}

func (enrollmentAdapter) Name() string { return "enrollment" }

func (enrollmentAdapter) StoredKey(e *models.Enrollment) string { return e.StudentID }

func (enrollmentAdapter) IncomingKey(s snapshot.Student) string { return s.ID }

// CompareFields treats a returning student as changed so the enrollment is unarchived.
func (enrollmentAdapter) CompareFields(stored *models.Enrollment, incoming snapshot.Student) []string {
	mismatch := snapshot.Diff(stored.ToSnapshot(), incoming)
	if stored.Archived {
		mismatch = append(mismatch, "archived: stored=true incoming=false")
	}
	return mismatch
}

type assignmentAdapter struct{}

func (assignmentAdapter) Name() string { return "assignment" }

func (assignmentAdapter) StoredKey(a *models.Assignment) string { return a.ExternalID }

func (assignmentAdapter) IncomingKey(a snapshot.Assignment) string { return a.ID }

func (assignmentAdapter) CompareFields(stored *models.Assignment, incoming snapshot.Assignment) []string {
	return snapshot.Diff(snapshot.NormalizeAssignment(stored.ToSnapshot()), snapshot.NormalizeAssignment(incoming))
}

// submissionAdapter matches latest versions only; older versions are history.
type submissionAdapter struct{}

func (submissionAdapter) Name() string { return "submission" }

func (submissionAdapter) StoredKey(s *models.Submission) string {
	return SubmissionKey(s.AssignmentExternalID, s.ExternalID)
}

func (submissionAdapter) IncomingKey(s snapshot.Submission) string {
	return SubmissionKey(s.AssignmentID, s.ID)
}

// CompareFields ignores the grade and updatedAt; grades are never reconciled as content.
func (submissionAdapter) CompareFields(stored *models.Submission, incoming snapshot.Submission) []string {
	return snapshot.Diff(snapshot.ComparableSubmission(stored.ToSnapshot()), snapshot.ComparableSubmission(incoming))
}

// SubmissionKey is the natural key of a submission within a classroom.
func SubmissionKey(assignmentExternalID, externalID string) string {
	if externalID == "" {
		return ""
	}
	return assignmentExternalID + "/" + externalID
}
