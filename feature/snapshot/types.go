package snapshot

import (
	"encoding/json"
	"time"
)

// Assignment types.
const (
	AssignmentQuiz    = "quiz"
	AssignmentCoding  = "coding"
	AssignmentWritten = "written"
	AssignmentForm    = "form"
)

// Submission statuses.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
)

// Grader kinds.
const (
	GradedByAI      = "ai"
	GradedByTeacher = "teacher"
)

// Snapshot is one full export of a teacher's classrooms.
// It is a value object and is never persisted verbatim.
type Snapshot struct {
	Teacher    Teacher     `json:"teacher" validate:"required"`
	Classrooms []Classroom `json:"classrooms" validate:"dive"`
	Metadata   Metadata    `json:"snapshotMetadata"`
}

// Metadata describes the export itself.
type Metadata struct {
	FetchedAt     *time.Time `json:"fetchedAt,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Source        string     `json:"source,omitempty"`
	SchemaVersion int        `json:"schemaVersion"`
}

// Teacher is identified by email.
type Teacher struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName"`
}

// Classroom is identified by its external source ID.
type Classroom struct {
	ID               string       `json:"id" validate:"required"`
	Name             string       `json:"name" validate:"required"`
	Section          string       `json:"section,omitempty"`
	Description      string       `json:"description,omitempty"`
	Room             string       `json:"room,omitempty"`
	CourseGroupEmail string       `json:"courseGroupEmail,omitempty"`
	AlternateLink    string       `json:"alternateLink,omitempty"`
	Students         []Student    `json:"students" validate:"dive"`
	Assignments      []Assignment `json:"assignments" validate:"dive"`
	Submissions      []Submission `json:"submissions" validate:"dive"`
}

// Student is a roster entry; identity within a classroom is the student ID.
type Student struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// Assignment is identified by its external ID within a classroom.
type Assignment struct {
	ID            string     `json:"id" validate:"required"`
	Title         string     `json:"title" validate:"required"`
	Description   string     `json:"description,omitempty"`
	MaxPoints     float64    `json:"maxPoints" validate:"gte=0"`
	Type          string     `json:"type" validate:"oneof=quiz coding written form"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	AlternateLink string     `json:"alternateLink,omitempty"`
	QuizData      *QuizData  `json:"quizData,omitempty"`
}

// QuizData holds form metadata for quiz and form assignments.
type QuizData struct {
	FormID                string            `json:"formId,omitempty"`
	FormURL               string            `json:"formUrl,omitempty"`
	Title                 string            `json:"title,omitempty"`
	IsQuiz                bool              `json:"isQuiz"`
	TotalQuestions        int               `json:"totalQuestions"`
	TotalPoints           float64           `json:"totalPoints"`
	AutoGradableQuestions int               `json:"autoGradableQuestions"`
	ManualGradingRequired bool              `json:"manualGradingRequired"`
	CollectEmailAddresses bool              `json:"collectEmailAddresses"`
	AllowResponseEditing  bool              `json:"allowResponseEditing"`
	RequireSignIn         bool              `json:"requireSignIn"`
	Questions             []json.RawMessage `json:"questions,omitempty"`
}

// Submission is identified by its external ID, scoped to an assignment.
type Submission struct {
	ID            string       `json:"id" validate:"required"`
	AssignmentID  string       `json:"assignmentId" validate:"required"`
	StudentID     string       `json:"studentId" validate:"required"`
	StudentEmail  string       `json:"studentEmail,omitempty"`
	StudentName   string       `json:"studentName,omitempty"`
	Content       string       `json:"content,omitempty"`
	Attachments   []Attachment `json:"attachments"`
	Status        string       `json:"status" validate:"oneof=pending submitted graded"`
	Late          bool         `json:"late,omitempty"`
	AlternateLink string       `json:"alternateLink,omitempty"`
	SubmittedAt   *time.Time   `json:"submittedAt,omitempty"`
	UpdatedAt     *time.Time   `json:"updatedAt,omitempty"`
	Grade         *Grade       `json:"grade,omitempty" validate:"omitempty"`
}

// Attachment is a file or link handed in with a submission.
type Attachment struct {
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// Grade is a score recorded against one submission version.
type Grade struct {
	Score    float64   `json:"score" validate:"gte=0"`
	MaxScore float64   `json:"maxScore" validate:"gte=0"`
	Feedback string    `json:"feedback,omitempty"`
	GradedBy string    `json:"gradedBy" validate:"oneof=ai teacher"`
	GradedAt time.Time `json:"gradedAt"`
}

// CountSubmissions returns the number of submissions across all classrooms.
func (s *Snapshot) CountSubmissions() int {
	n := 0
	for _, c := range s.Classrooms {
		n += len(c.Submissions)
	}
	return n
}

// CountAssignments returns the number of assignments across all classrooms.
func (s *Snapshot) CountAssignments() int {
	n := 0
	for _, c := range s.Classrooms {
		n += len(c.Assignments)
	}
	return n
}

// ClassroomIDs returns the external classroom IDs in snapshot order.
func (s *Snapshot) ClassroomIDs() []string {
	ids := make([]string, 0, len(s.Classrooms))
	for _, c := range s.Classrooms {
		ids = append(ids, c.ID)
	}
	return ids
}
