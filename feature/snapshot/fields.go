package snapshot

import "time"

// ClassroomFields returns the classroom's own fields without nested collections.
func ClassroomFields(c Classroom) Classroom {
	c.Students = nil
	c.Assignments = nil
	c.Submissions = nil
	return c
}

// ComparableSubmission strips what the reconciler never compares: the grade,
// which only grading actions write, and the write-time stamp.
func ComparableSubmission(s Submission) Submission {
	s = NormalizeSubmission(s)
	s.Grade = nil
	return s
}

// GradablePayload is the part of a submission a grade was given for.
type GradablePayload struct {
	AssignmentID string       `json:"assignmentId"`
	StudentID    string       `json:"studentId"`
	Content      string       `json:"content,omitempty"`
	Attachments  []Attachment `json:"attachments"`
	SubmittedAt  *time.Time   `json:"submittedAt,omitempty"`
}

// Gradable extracts the gradable payload of a submission.
// Everything else on a submission (student name/email, late flag, links, status)
// is metadata that may be patched without invalidating a grade.
func Gradable(s Submission) GradablePayload {
	n := NormalizeSubmission(s)
	return GradablePayload{
		AssignmentID: n.AssignmentID,
		StudentID:    n.StudentID,
		Content:      n.Content,
		Attachments:  n.Attachments,
		SubmittedAt:  n.SubmittedAt,
	}
}

// GradableEqual reports whether two submissions carry the same gradable payload.
func GradableEqual(a, b Submission) bool {
	return Equal(Gradable(a), Gradable(b))
}
