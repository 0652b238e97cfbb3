package models

import (
	"encoding/json"
	"time"

	"classroom-sync/feature/snapshot"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NewID returns a fresh row identifier.
func NewID() string {
	return uuid.NewString()
}

// ApplyClassroom copies snapshot fields onto the row.
func (c *Classroom) ApplyClassroom(in snapshot.Classroom) {
	c.ExternalID = in.ID
	c.Name = in.Name
	c.Section = in.Section
	c.Description = in.Description
	c.Room = in.Room
	c.CourseGroupEmail = in.CourseGroupEmail
	c.AlternateLink = in.AlternateLink
}

// ToSnapshot returns the classroom's own fields in snapshot form.
func (c *Classroom) ToSnapshot() snapshot.Classroom {
	return snapshot.Classroom{
		ID:               c.ExternalID,
		Name:             c.Name,
		Section:          c.Section,
		Description:      c.Description,
		Room:             c.Room,
		CourseGroupEmail: c.CourseGroupEmail,
		AlternateLink:    c.AlternateLink,
	}
}

// ApplyStudent copies roster fields onto the enrollment.
func (e *Enrollment) ApplyStudent(in snapshot.Student) {
	e.StudentID = in.ID
	e.Name = in.Name
	e.Email = in.Email
}

// ToSnapshot returns the enrollment as a roster entry.
func (e *Enrollment) ToSnapshot() snapshot.Student {
	return snapshot.Student{ID: e.StudentID, Name: e.Name, Email: e.Email}
}

// ApplyAssignment copies snapshot fields onto the row.
func (a *Assignment) ApplyAssignment(in snapshot.Assignment) error {
	a.ExternalID = in.ID
	a.Title = in.Title
	a.Description = in.Description
	a.MaxPoints = in.MaxPoints
	a.Type = in.Type
	a.DueDate = utcPtr(in.DueDate)
	a.AlternateLink = in.AlternateLink
	a.QuizData = nil
	if in.QuizData != nil {
		data, err := json.Marshal(in.QuizData)
		if err != nil {
			return err
		}
		a.QuizData = datatypes.JSON(data)
	}
	return nil
}

// ToSnapshot returns the assignment in snapshot form.
func (a *Assignment) ToSnapshot() snapshot.Assignment {
	out := snapshot.Assignment{
		ID:            a.ExternalID,
		Title:         a.Title,
		Description:   a.Description,
		MaxPoints:     a.MaxPoints,
		Type:          a.Type,
		DueDate:       utcPtr(a.DueDate),
		AlternateLink: a.AlternateLink,
	}
	if len(a.QuizData) > 0 && string(a.QuizData) != "null" {
		var q snapshot.QuizData
		if err := json.Unmarshal(a.QuizData, &q); err == nil {
			out.QuizData = &q
		}
	}
	return out
}

// ApplySubmission copies snapshot fields onto a submission version.
// Status is derived: a version with a grade is always graded.
func (s *Submission) ApplySubmission(in snapshot.Submission, graded bool) error {
	attachments := in.Attachments
	if attachments == nil {
		attachments = []snapshot.Attachment{}
	}
	data, err := json.Marshal(attachments)
	if err != nil {
		return err
	}

	s.ExternalID = in.ID
	s.AssignmentExternalID = in.AssignmentID
	s.StudentID = in.StudentID
	s.StudentEmail = in.StudentEmail
	s.StudentName = in.StudentName
	s.Content = in.Content
	s.Attachments = datatypes.JSON(data)
	s.SourceStatus = in.Status
	s.Late = in.Late
	s.AlternateLink = in.AlternateLink
	s.SubmittedAt = utcPtr(in.SubmittedAt)
	s.SourceUpdatedAt = utcPtr(in.UpdatedAt)
	s.Status = EffectiveStatus(in.Status, graded)
	return nil
}

// ToSnapshot returns the version in snapshot form, without grade.
func (s *Submission) ToSnapshot() snapshot.Submission {
	out := snapshot.Submission{
		ID:            s.ExternalID,
		AssignmentID:  s.AssignmentExternalID,
		StudentID:     s.StudentID,
		StudentEmail:  s.StudentEmail,
		StudentName:   s.StudentName,
		Content:       s.Content,
		Attachments:   []snapshot.Attachment{},
		Status:        s.SourceStatus,
		Late:          s.Late,
		AlternateLink: s.AlternateLink,
		SubmittedAt:   utcPtr(s.SubmittedAt),
		UpdatedAt:     utcPtr(s.SourceUpdatedAt),
	}
	if len(s.Attachments) > 0 {
		_ = json.Unmarshal(s.Attachments, &out.Attachments)
	}
	return out
}

// EffectiveStatus is the status a version exposes given whether it carries a grade.
func EffectiveStatus(source string, graded bool) string {
	if graded {
		return snapshot.StatusGraded
	}
	if source == snapshot.StatusGraded {
		// Upstream says graded but no grade reached us.
		return snapshot.StatusSubmitted
	}
	if source == "" {
		return snapshot.StatusPending
	}
	return source
}

// NewGrade builds a grade row for a submission version.
func NewGrade(submissionID string, in snapshot.Grade, source string) *Grade {
	gradedAt := in.GradedAt.UTC()
	if gradedAt.IsZero() {
		gradedAt = time.Now().UTC()
	}
	return &Grade{
		ID:           NewID(),
		SubmissionID: submissionID,
		Score:        in.Score,
		MaxScore:     in.MaxScore,
		Feedback:     in.Feedback,
		GradedBy:     in.GradedBy,
		GradedAt:     gradedAt.Truncate(time.Millisecond),
		Source:       source,
	}
}

// ToSnapshot returns the grade in snapshot form.
func (g *Grade) ToSnapshot() snapshot.Grade {
	return snapshot.Grade{
		Score:    g.Score,
		MaxScore: g.MaxScore,
		Feedback: g.Feedback,
		GradedBy: g.GradedBy,
		GradedAt: g.GradedAt.UTC(),
	}
}

// Percentage returns score/maxScore*100, and false when maxScore is not positive.
func (g *Grade) Percentage() (float64, bool) {
	if g.MaxScore <= 0 {
		return 0, false
	}
	return g.Score / g.MaxScore * 100, true
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}
