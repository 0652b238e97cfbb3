package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"classroom-sync/feature/classroom/models"
	"classroom-sync/feature/snapshot"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a looked up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotLatest is returned when grading a superseded submission version.
	ErrNotLatest = errors.New("submission version is not the latest")
)

// Store reads and writes classroom entities.
type Store struct {
	db *gorm.DB
}

// New creates a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// AutoMigrate creates or updates the classroom tables.
func (s *Store) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate classroom tables: %w", err)
	}
	return nil
}

// FindTeacher returns the teacher with email, or nil when none exists.
func (s *Store) FindTeacher(ctx context.Context, email string) (*models.Teacher, error) {
	var teacher models.Teacher
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).Take(&teacher).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load teacher %s: %w", email, err)
	}
	return &teacher, nil
}

// LoadTeacherState loads the teacher, every classroom it owns and the
// classrooms among externalIDs owned by someone else.
func (s *Store) LoadTeacherState(ctx context.Context, email string, externalIDs []string) (*TeacherState, error) {
	db := s.db.WithContext(ctx)
	state := &TeacherState{Foreign: map[string]*models.Classroom{}}

	teacher, err := s.FindTeacher(ctx, email)
	if err != nil {
		return nil, err
	}
	state.Teacher = teacher

	if len(externalIDs) > 0 {
		var named []*models.Classroom
		if err := db.Where("external_id IN ?", externalIDs).Find(&named).Error; err != nil {
			return nil, fmt.Errorf("failed to load classrooms: %w", err)
		}
		for _, c := range named {
			if teacher == nil || c.TeacherID != teacher.ID {
				state.Foreign[c.ExternalID] = c
			}
		}
	}

	if teacher == nil {
		return state, nil
	}

	var classrooms []*models.Classroom
	if err := db.Where("teacher_id = ?", teacher.ID).Order("external_id").Find(&classrooms).Error; err != nil {
		return nil, fmt.Errorf("failed to load classrooms for %s: %w", email, err)
	}
	if len(classrooms) == 0 {
		return state, nil
	}

	ids := make([]string, len(classrooms))
	byID := make(map[string]*ClassroomState, len(classrooms))
	for i, c := range classrooms {
		ids[i] = c.ID
		cs := &ClassroomState{Classroom: c, Grades: map[string][]*models.Grade{}}
		byID[c.ID] = cs
		state.Classrooms = append(state.Classrooms, cs)
	}

	var enrollments []*models.Enrollment
	if err := db.Where("classroom_id IN ?", ids).Order("student_id").Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to load enrollments: %w", err)
	}
	for _, e := range enrollments {
		byID[e.ClassroomID].Enrollments = append(byID[e.ClassroomID].Enrollments, e)
	}

	var assignments []*models.Assignment
	if err := db.Where("classroom_id IN ?", ids).Order("external_id").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	for _, a := range assignments {
		byID[a.ClassroomID].Assignments = append(byID[a.ClassroomID].Assignments, a)
	}

	var submissions []*models.Submission
	if err := db.Where("classroom_id IN ?", ids).Order("external_id, version").Find(&submissions).Error; err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}
	owner := make(map[string]*ClassroomState, len(submissions))
	for _, sub := range submissions {
		cs := byID[sub.ClassroomID]
		cs.Submissions = append(cs.Submissions, sub)
		owner[sub.ID] = cs
	}

	var grades []*models.Grade
	err = db.Where("submission_id IN (?)", db.Model(&models.Submission{}).Select("id").Where("classroom_id IN ?", ids)).
		Order("graded_at, created_at").Find(&grades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load grades: %w", err)
	}
	for _, g := range grades {
		if cs, ok := owner[g.SubmissionID]; ok {
			cs.Grades[g.SubmissionID] = append(cs.Grades[g.SubmissionID], g)
		}
	}

	return state, nil
}

// VersionRecord is one submission version with its grade history.
type VersionRecord struct {
	Submission *models.Submission `json:"submission"`
	Grades     []*models.Grade    `json:"grades"`
}

// SubmissionHistory returns every version of the submission that id belongs to,
// newest first, each with its grades.
func (s *Store) SubmissionHistory(ctx context.Context, id string) ([]VersionRecord, error) {
	db := s.db.WithContext(ctx)

	sub, err := s.FindSubmission(ctx, id)
	if err != nil {
		return nil, err
	}

	var versions []*models.Submission
	err = db.Where("assignment_id = ? AND external_id = ?", sub.AssignmentID, sub.ExternalID).
		Order("version DESC").Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load versions of %s: %w", id, err)
	}

	ids := make([]string, len(versions))
	for i, v := range versions {
		ids[i] = v.ID
	}
	var grades []*models.Grade
	if err := db.Where("submission_id IN ?", ids).Order("graded_at, created_at").Find(&grades).Error; err != nil {
		return nil, fmt.Errorf("failed to load grades of %s: %w", id, err)
	}
	bySubmission := make(map[string][]*models.Grade)
	for _, g := range grades {
		bySubmission[g.SubmissionID] = append(bySubmission[g.SubmissionID], g)
	}

	history := make([]VersionRecord, len(versions))
	for i, v := range versions {
		history[i] = VersionRecord{Submission: v, Grades: bySubmission[v.ID]}
		if history[i].Grades == nil {
			history[i].Grades = []*models.Grade{}
		}
	}
	return history, nil
}

// FindSubmission returns a submission version by row ID.
func (s *Store) FindSubmission(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load submission %s: %w", id, err)
	}
	return &sub, nil
}

// TeacherEmailForSubmission resolves the owning teacher of a submission version.
func (s *Store) TeacherEmailForSubmission(ctx context.Context, id string) (string, error) {
	var emails []string
	err := s.db.WithContext(ctx).
		Table("submissions").
		Select("teachers.email").
		Joins("JOIN classrooms ON classrooms.id = submissions.classroom_id").
		Joins("JOIN teachers ON teachers.id = classrooms.teacher_id").
		Where("submissions.id = ?", id).
		Pluck("teachers.email", &emails).Error
	if err != nil {
		return "", fmt.Errorf("failed to resolve teacher of %s: %w", id, err)
	}
	if len(emails) == 0 {
		return "", fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return emails[0], nil
}

// RecordGrade attaches a new grade to the latest version of a submission.
// Existing grades are kept; the version's status becomes graded.
func (s *Store) RecordGrade(ctx context.Context, submissionID string, grade snapshot.Grade, source string) (*models.Grade, error) {
	var row *models.Grade
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub models.Submission
		if err := tx.Where("id = ?", submissionID).Take(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
			}
			return err
		}
		if !sub.IsLatest {
			return fmt.Errorf("submission %s: %w", submissionID, ErrNotLatest)
		}

		row = models.NewGrade(sub.ID, grade, source)
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to insert grade: %w", err)
		}
		return tx.Model(&models.Submission{}).Where("id = ?", sub.ID).
			Update("status", snapshot.StatusGraded).Error
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Counts are the denormalized aggregates written back after an import.
type Counts struct {
	Classrooms  int
	Students    int
	Assignments int
	Submissions int
	Ungraded    int
}

// WriteTeacherCounts stores teacher aggregates when they differ from the row.
func (s *Store) WriteTeacherCounts(ctx context.Context, teacher *models.Teacher, c Counts) (bool, error) {
	if teacher.ClassroomCount == c.Classrooms && teacher.StudentCount == c.Students &&
		teacher.AssignmentCount == c.Assignments && teacher.SubmissionCount == c.Submissions &&
		teacher.UngradedCount == c.Ungraded {
		return false, nil
	}
	err := s.db.WithContext(ctx).Model(&models.Teacher{}).Where("id = ?", teacher.ID).Updates(map[string]any{
		"classroom_count":  c.Classrooms,
		"student_count":    c.Students,
		"assignment_count": c.Assignments,
		"submission_count": c.Submissions,
		"ungraded_count":   c.Ungraded,
	}).Error
	if err != nil {
		return false, fmt.Errorf("failed to update teacher counts: %w", err)
	}
	return true, nil
}

// WriteClassroomCounts stores classroom aggregates when they differ from the row.
func (s *Store) WriteClassroomCounts(ctx context.Context, classroom *models.Classroom, c Counts) (bool, error) {
	if classroom.StudentCount == c.Students && classroom.AssignmentCount == c.Assignments &&
		classroom.SubmissionCount == c.Submissions && classroom.UngradedCount == c.Ungraded {
		return false, nil
	}
	err := s.db.WithContext(ctx).Model(&models.Classroom{}).Where("id = ?", classroom.ID).Updates(map[string]any{
		"student_count":    c.Students,
		"assignment_count": c.Assignments,
		"submission_count": c.Submissions,
		"ungraded_count":   c.Ungraded,
	}).Error
	if err != nil {
		return false, fmt.Errorf("failed to update classroom counts: %w", err)
	}
	return true, nil
}

// ListTeacherEmails returns every known teacher email, sorted.
func (s *Store) ListTeacherEmails(ctx context.Context) ([]string, error) {
	var emails []string
	if err := s.db.WithContext(ctx).Model(&models.Teacher{}).Pluck("email", &emails).Error; err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	sort.Strings(emails)
	return emails, nil
}

// NormalizeEmail is the canonical form of a teacher email key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
