package snapshot

import (
	"encoding/json"
	"time"
)

// Normalize returns a copy of s without the volatile fields that change on every
// export: snapshotMetadata.fetchedAt, snapshotMetadata.expiresAt and each
// submission's updatedAt. Timestamps are brought to UTC millisecond precision and
// nil collections become empty ones. The input is never modified.
func Normalize(s *Snapshot) *Snapshot {
	if s == nil {
		return nil
	}

	out := &Snapshot{
		Teacher: s.Teacher,
		Metadata: Metadata{
			Source:        s.Metadata.Source,
			SchemaVersion: s.Metadata.SchemaVersion,
		},
		Classrooms: make([]Classroom, len(s.Classrooms)),
	}
	for i, c := range s.Classrooms {
		out.Classrooms[i] = NormalizeClassroom(c)
	}
	return out
}

// NormalizeClassroom deep-copies a classroom and normalizes its nested entities.
func NormalizeClassroom(c Classroom) Classroom {
	out := c
	out.Students = make([]Student, len(c.Students))
	copy(out.Students, c.Students)

	out.Assignments = make([]Assignment, len(c.Assignments))
	for i, a := range c.Assignments {
		out.Assignments[i] = NormalizeAssignment(a)
	}

	out.Submissions = make([]Submission, len(c.Submissions))
	for i, sub := range c.Submissions {
		out.Submissions[i] = NormalizeSubmission(sub)
	}
	return out
}

// NormalizeAssignment deep-copies an assignment.
func NormalizeAssignment(a Assignment) Assignment {
	out := a
	out.DueDate = normalizeTime(a.DueDate)
	if a.QuizData != nil {
		q := *a.QuizData
		if a.QuizData.Questions != nil {
			q.Questions = make([]json.RawMessage, len(a.QuizData.Questions))
			for i, raw := range a.QuizData.Questions {
				q.Questions[i] = append(json.RawMessage(nil), raw...)
			}
		}
		out.QuizData = &q
	}
	return out
}

// NormalizeSubmission deep-copies a submission and drops updatedAt.
// submittedAt marks a real event and is kept.
func NormalizeSubmission(s Submission) Submission {
	out := s
	out.UpdatedAt = nil
	out.SubmittedAt = normalizeTime(s.SubmittedAt)

	out.Attachments = make([]Attachment, len(s.Attachments))
	copy(out.Attachments, s.Attachments)

	if s.Grade != nil {
		g := *s.Grade
		g.GradedAt = g.GradedAt.UTC().Truncate(time.Millisecond)
		out.Grade = &g
	}
	return out
}

func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}
