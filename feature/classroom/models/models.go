package models

import (
	"time"

	"gorm.io/datatypes"
)

// Teacher is identified by email. Counts are recomputed after every import.
type Teacher struct {
	ID              string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Email           string    `gorm:"column:email;type:varchar(191);uniqueIndex;not null" json:"email"`
	DisplayName     string    `gorm:"column:display_name" json:"displayName"`
	ClassroomCount  int       `gorm:"column:classroom_count" json:"classroomCount"`
	StudentCount    int       `gorm:"column:student_count" json:"studentCount"`
	AssignmentCount int       `gorm:"column:assignment_count" json:"assignmentCount"`
	SubmissionCount int       `gorm:"column:submission_count" json:"submissionCount"`
	UngradedCount   int       `gorm:"column:ungraded_count" json:"ungradedCount"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName overrides the table name.
func (Teacher) TableName() string { return "teachers" }

// Classroom is identified by its external source ID and owned by one teacher.
type Classroom struct {
	ID               string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	TeacherID        string    `gorm:"column:teacher_id;type:varchar(36);index;not null" json:"teacherId"`
	ExternalID       string    `gorm:"column:external_id;type:varchar(191);uniqueIndex;not null" json:"externalId"`
	Name             string    `gorm:"column:name" json:"name"`
	Section          string    `gorm:"column:section" json:"section"`
	Description      string    `gorm:"column:description;type:text" json:"description"`
	Room             string    `gorm:"column:room" json:"room"`
	CourseGroupEmail string    `gorm:"column:course_group_email" json:"courseGroupEmail"`
	AlternateLink    string    `gorm:"column:alternate_link" json:"alternateLink"`
	StudentCount     int       `gorm:"column:student_count" json:"studentCount"`
	AssignmentCount  int       `gorm:"column:assignment_count" json:"assignmentCount"`
	SubmissionCount  int       `gorm:"column:submission_count" json:"submissionCount"`
	UngradedCount    int       `gorm:"column:ungraded_count" json:"ungradedCount"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName overrides the table name.
func (Classroom) TableName() string { return "classrooms" }

// Enrollment links a student to a classroom. It is archived, never deleted,
// when the student leaves the roster.
type Enrollment struct {
	ID          string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	ClassroomID string     `gorm:"column:classroom_id;type:varchar(36);uniqueIndex:idx_enrollment_student;not null" json:"classroomId"`
	StudentID   string     `gorm:"column:student_id;type:varchar(191);uniqueIndex:idx_enrollment_student;not null" json:"studentId"`
	Name        string     `gorm:"column:name" json:"name"`
	Email       string     `gorm:"column:email" json:"email"`
	Archived    bool       `gorm:"column:archived;index" json:"archived"`
	ArchivedAt  *time.Time `gorm:"column:archived_at" json:"archivedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName overrides the table name.
func (Enrollment) TableName() string { return "enrollments" }

// Assignment is identified by its external ID within a classroom.
type Assignment struct {
	ID            string         `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	ClassroomID   string         `gorm:"column:classroom_id;type:varchar(36);uniqueIndex:idx_assignment_external;not null" json:"classroomId"`
	ExternalID    string         `gorm:"column:external_id;type:varchar(191);uniqueIndex:idx_assignment_external;not null" json:"externalId"`
	Title         string         `gorm:"column:title" json:"title"`
	Description   string         `gorm:"column:description;type:text" json:"description"`
	MaxPoints     float64        `gorm:"column:max_points" json:"maxPoints"`
	Type          string         `gorm:"column:type;type:varchar(16)" json:"type"`
	DueDate       *time.Time     `gorm:"column:due_date" json:"dueDate,omitempty"`
	AlternateLink string         `gorm:"column:alternate_link" json:"alternateLink"`
	QuizData      datatypes.JSON `gorm:"column:quiz_data" json:"quizData,omitempty"`
	CreatedAt     time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName overrides the table name.
func (Assignment) TableName() string { return "assignments" }

// Submission is one version of a student's hand-in. Versions of the same
// external submission form a chain through PriorVersionID; exactly one has IsLatest.
type Submission struct {
	ID                   string         `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	ClassroomID          string         `gorm:"column:classroom_id;type:varchar(36);index;not null" json:"classroomId"`
	AssignmentID         string         `gorm:"column:assignment_id;type:varchar(36);uniqueIndex:idx_submission_version;not null" json:"assignmentId"`
	AssignmentExternalID string         `gorm:"column:assignment_external_id;type:varchar(191)" json:"assignmentExternalId"`
	ExternalID           string         `gorm:"column:external_id;type:varchar(191);uniqueIndex:idx_submission_version;not null" json:"externalId"`
	Version              int            `gorm:"column:version;uniqueIndex:idx_submission_version;not null" json:"version"`
	IsLatest             bool           `gorm:"column:is_latest;index" json:"isLatest"`
	PriorVersionID       *string        `gorm:"column:prior_version_id;type:varchar(36)" json:"priorVersionId,omitempty"`
	EnrollmentID         *string        `gorm:"column:enrollment_id;type:varchar(36);index" json:"enrollmentId,omitempty"`
	StudentID            string         `gorm:"column:student_id;type:varchar(191)" json:"studentId"`
	StudentEmail         string         `gorm:"column:student_email" json:"studentEmail"`
	StudentName          string         `gorm:"column:student_name" json:"studentName"`
	Content              string         `gorm:"column:content;type:text" json:"content"`
	Attachments          datatypes.JSON `gorm:"column:attachments" json:"attachments"`
	SourceStatus         string         `gorm:"column:source_status;type:varchar(16)" json:"sourceStatus"`
	Status               string         `gorm:"column:status;type:varchar(16);index" json:"status"`
	Late                 bool           `gorm:"column:late" json:"late"`
	AlternateLink        string         `gorm:"column:alternate_link" json:"alternateLink"`
	SubmittedAt          *time.Time     `gorm:"column:submitted_at" json:"submittedAt,omitempty"`
	SourceUpdatedAt      *time.Time     `gorm:"column:source_updated_at" json:"sourceUpdatedAt,omitempty"`
	CreatedAt            time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt            time.Time      `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName overrides the table name.
func (Submission) TableName() string { return "submissions" }

// Grade sources.
const (
	GradeSourceSnapshot = "snapshot"
	GradeSourceAction   = "action"
)

// Grade is attached to exactly one submission version and is never modified.
type Grade struct {
	ID           string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	SubmissionID string    `gorm:"column:submission_id;type:varchar(36);index;not null" json:"submissionId"`
	Score        float64   `gorm:"column:score" json:"score"`
	MaxScore     float64   `gorm:"column:max_score" json:"maxScore"`
	Feedback     string    `gorm:"column:feedback;type:text" json:"feedback"`
	GradedBy     string    `gorm:"column:graded_by;type:varchar(16)" json:"gradedBy"`
	GradedAt     time.Time `gorm:"column:graded_at" json:"gradedAt"`
	Source       string    `gorm:"column:source;type:varchar(16)" json:"source"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName overrides the table name.
func (Grade) TableName() string { return "grades" }

// All returns every model in migration order.
func All() []any {
	return []any{&Teacher{}, &Classroom{}, &Enrollment{}, &Assignment{}, &Submission{}, &Grade{}}
}
