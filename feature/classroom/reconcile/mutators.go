package reconcile

import (
	"context"
	"fmt"
	"time"

	"classroom-sync/core/reconcile"
	"classroom-sync/feature/classroom/models"
	"classroom-sync/feature/classroom/store"
	"classroom-sync/feature/snapshot"

	"gorm.io/gorm"
)

var (
	_ reconcile.Mutator[*models.Teacher, snapshot.Teacher]       = (*teacherMutator)(nil)
	_ reconcile.Mutator[*models.Classroom, snapshot.Classroom]   = (*classroomMutator)(nil)
	_ reconcile.Mutator[*models.Enrollment, snapshot.Student]    = (*enrollmentMutator)(nil)
	_ reconcile.Mutator[*models.Assignment, snapshot.Assignment] = (*assignmentMutator)(nil)
	_ reconcile.Mutator[*models.Submission, snapshot.Submission] = (*submissionMutator)(nil)
)

type teacherMutator struct {
	tx *gorm.DB
	// row is the teacher after the group, stored or created.
	row *models.Teacher
}

func (m *teacherMutator) Create(_ context.Context, in snapshot.Teacher) (reconcile.Effect, error) {
	row := &models.Teacher{
		ID:          models.NewID(),
		Email:       store.NormalizeEmail(in.Email),
		DisplayName: in.DisplayName,
	}
	if err := m.tx.Create(row).Error; err != nil {
		return "", fmt.Errorf("failed to insert teacher: %w", err)
	}
	m.row = row
	return reconcile.EffectCreated, nil
}

func (m *teacherMutator) Update(_ context.Context, stored *models.Teacher, in snapshot.Teacher, _ []string) (reconcile.Effect, error) {
	err := m.tx.Model(&models.Teacher{}).Where("id = ?", stored.ID).
		Updates(map[string]any{"display_name": in.DisplayName}).Error
	if err != nil {
		return "", fmt.Errorf("failed to update teacher: %w", err)
	}
	row := *stored
	row.DisplayName = in.DisplayName
	m.row = &row
	return reconcile.EffectUpdated, nil
}

func (m *teacherMutator) Absent(context.Context, *models.Teacher) (reconcile.Effect, error) {
	return reconcile.EffectUnchanged, nil
}

type classroomMutator struct {
	tx        *gorm.DB
	teacherID string
	// rows collects written classrooms by external ID.
	rows map[string]*models.Classroom
}

func (m *classroomMutator) Create(_ context.Context, in snapshot.Classroom) (reconcile.Effect, error) {
	row := &models.Classroom{ID: models.NewID(), TeacherID: m.teacherID}
	row.ApplyClassroom(in)
	if err := m.tx.Create(row).Error; err != nil {
		return "", fmt.Errorf("failed to insert classroom: %w", err)
	}
	m.rows[row.ExternalID] = row
	return reconcile.EffectCreated, nil
}

func (m *classroomMutator) Update(_ context.Context, stored *models.Classroom, in snapshot.Classroom, _ []string) (reconcile.Effect, error) {
	row := *stored
	row.ApplyClassroom(in)
	err := m.tx.Model(&models.Classroom{}).Where("id = ?", row.ID).Updates(map[string]any{
		"name":               row.Name,
		"section":            row.Section,
		"description":        row.Description,
		"room":               row.Room,
		"course_group_email": row.CourseGroupEmail,
		"alternate_link":     row.AlternateLink,
	}).Error
	if err != nil {
		return "", fmt.Errorf("failed to update classroom: %w", err)
	}
	m.rows[row.ExternalID] = &row
	return reconcile.EffectUpdated, nil
}

// Absent keeps classrooms missing from the snapshot untouched.
func (m *classroomMutator) Absent(context.Context, *models.Classroom) (reconcile.Effect, error) {
	return reconcile.EffectUnchanged, nil
}

type enrollmentMutator struct {
	tx          *gorm.DB
	classroomID string
	now         time.Time
	// ids maps student IDs to created enrollment IDs.
	ids map[string]string
}

func (m *enrollmentMutator) Create(_ context.Context, in snapshot.Student) (reconcile.Effect, error) {
	row := &models.Enrollment{ID: models.NewID(), ClassroomID: m.classroomID}
	row.ApplyStudent(in)
	if err := m.tx.Create(row).Error; err != nil {
		return "", fmt.Errorf("failed to insert enrollment: %w", err)
	}
	m.ids[row.StudentID] = row.ID
	return reconcile.EffectCreated, nil
}

// Update refreshes the roster fields and unarchives a returning student.
func (m *enrollmentMutator) Update(_ context.Context, stored *models.Enrollment, in snapshot.Student, _ []string) (reconcile.Effect, error) {
	err := m.tx.Model(&models.Enrollment{}).Where("id = ?", stored.ID).Updates(map[string]any{
		"name":        in.Name,
		"email":       in.Email,
		"archived":    false,
		"archived_at": nil,
	}).Error
	if err != nil {
		return "", fmt.Errorf("failed to update enrollment: %w", err)
	}
	return reconcile.EffectUpdated, nil
}

// Absent archives the enrollment. Its submissions and grades stay.
func (m *enrollmentMutator) Absent(_ context.Context, stored *models.Enrollment) (reconcile.Effect, error) {
	if stored.Archived {
		return reconcile.EffectUnchanged, nil
	}
	err := m.tx.Model(&models.Enrollment{}).Where("id = ?", stored.ID).Updates(map[string]any{
		"archived":    true,
		"archived_at": m.now,
	}).Error
	if err != nil {
		return "", fmt.Errorf("failed to archive enrollment: %w", err)
	}
	return reconcile.EffectArchived, nil
}

type assignmentMutator struct {
	tx          *gorm.DB
	classroomID string
	// ids maps external IDs to created assignment IDs.
	ids map[string]string
}

func (m *assignmentMutator) Create(_ context.Context, in snapshot.Assignment) (reconcile.Effect, error) {
	row := &models.Assignment{ID: models.NewID(), ClassroomID: m.classroomID}
	if err := row.ApplyAssignment(in); err != nil {
		return "", err
	}
	if err := m.tx.Create(row).Error; err != nil {
		return "", fmt.Errorf("failed to insert assignment: %w", err)
	}
	m.ids[row.ExternalID] = row.ID
	return reconcile.EffectCreated, nil
}

func (m *assignmentMutator) Update(_ context.Context, stored *models.Assignment, in snapshot.Assignment, _ []string) (reconcile.Effect, error) {
	row := *stored
	if err := row.ApplyAssignment(in); err != nil {
		return "", err
	}
	err := m.tx.Model(&models.Assignment{}).Where("id = ?", row.ID).Updates(map[string]any{
		"title":          row.Title,
		"description":    row.Description,
		"max_points":     row.MaxPoints,
		"type":           row.Type,
		"due_date":       row.DueDate,
		"alternate_link": row.AlternateLink,
		"quiz_data":      row.QuizData,
	}).Error
	if err != nil {
		return "", fmt.Errorf("failed to update assignment: %w", err)
	}
	return reconcile.EffectUpdated, nil
}

// Absent keeps assignments missing from the snapshot; their graded work stays reachable.
func (m *assignmentMutator) Absent(context.Context, *models.Assignment) (reconcile.Effect, error) {
	return reconcile.EffectUnchanged, nil
}

type submissionMutator struct {
	tx          *gorm.DB
	classroomID string
	plan        *ClassroomPlan
	// assignments and enrollments map external IDs to row IDs.
	assignments map[string]string
	enrollments map[string]string
	seeded      int
}

func (m *submissionMutator) Create(_ context.Context, in snapshot.Submission) (reconcile.Effect, error) {
	assignmentID, ok := m.assignments[in.AssignmentID]
	if !ok {
		return "", &reconcile.SkipError{Reason: fmt.Sprintf("assignment %s was not reconciled", in.AssignmentID)}
	}

	key := SubmissionKey(in.AssignmentID, in.ID)
	grade, seed := m.plan.Grades[key]

	row := &models.Submission{
		ID:           models.NewID(),
		ClassroomID:  m.classroomID,
		AssignmentID: assignmentID,
		Version:      1,
		IsLatest:     true,
		EnrollmentID: m.enrollment(in.StudentID),
	}
	if err := row.ApplySubmission(in, seed); err != nil {
		return "", err
	}
	if err := m.tx.Create(row).Error; err != nil {
		return "", fmt.Errorf("failed to insert submission: %w", err)
	}
	if seed {
		if err := m.seedGrade(row.ID, grade); err != nil {
			return "", err
		}
	}
	return reconcile.EffectCreated, nil
}

func (m *submissionMutator) Update(_ context.Context, stored *models.Submission, in snapshot.Submission, _ []string) (reconcile.Effect, error) {
	key := SubmissionKey(in.AssignmentID, in.ID)

	switch m.plan.Decisions[key] {
	case DecisionVersion:
		if err := m.version(stored, in); err != nil {
			return "", err
		}
		return reconcile.EffectVersioned, nil
	case DecisionPatch:
		if err := m.patch(stored, in); err != nil {
			return "", err
		}
		return reconcile.EffectPatched, nil
	default:
		if err := m.correct(stored, in); err != nil {
			return "", err
		}
		return reconcile.EffectUpdated, nil
	}
}

// Absent never deletes history.
func (m *submissionMutator) Absent(context.Context, *models.Submission) (reconcile.Effect, error) {
	return reconcile.EffectUnchanged, nil
}

// correct rewrites an ungraded latest version in place.
func (m *submissionMutator) correct(stored *models.Submission, in snapshot.Submission) error {
	var graded int64
	if err := m.tx.Model(&models.Grade{}).Where("submission_id = ?", stored.ID).Count(&graded).Error; err != nil {
		return fmt.Errorf("failed to count grades: %w", err)
	}
	if graded > 0 {
		return &reconcile.VersioningInvariantViolation{
			SubmissionID: stored.ID,
			Reason:       "graded version cannot be corrected in place",
		}
	}

	grade, seed := m.plan.Grades[SubmissionKey(in.AssignmentID, in.ID)]

	row := *stored
	if err := row.ApplySubmission(in, seed); err != nil {
		return err
	}
	row.EnrollmentID = m.enrollment(in.StudentID)

	err := m.tx.Model(&models.Submission{}).Where("id = ?", row.ID).Updates(submissionColumns(&row)).Error
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	if seed {
		return m.seedGrade(row.ID, grade)
	}
	return nil
}

// patch rewrites metadata on a graded version. The gradable payload must be unchanged.
func (m *submissionMutator) patch(stored *models.Submission, in snapshot.Submission) error {
	if !snapshot.GradableEqual(stored.ToSnapshot(), in) {
		return &reconcile.VersioningInvariantViolation{
			SubmissionID: stored.ID,
			Reason:       "gradable content changed on a graded version",
		}
	}

	err := m.tx.Model(&models.Submission{}).Where("id = ?", stored.ID).Updates(map[string]any{
		"student_email":     in.StudentEmail,
		"student_name":      in.StudentName,
		"source_status":     in.Status,
		"status":            models.EffectiveStatus(in.Status, true),
		"late":              in.Late,
		"alternate_link":    in.AlternateLink,
		"source_updated_at": in.UpdatedAt,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to patch submission: %w", err)
	}
	return nil
}

// version appends a new latest version after a graded one.
//
// The new row is inserted first and only promoted once the prior latest was
// flipped by this call. If the flip finds no latest row, another writer got
// there first and the insert is undone.
func (m *submissionMutator) version(latest *models.Submission, in snapshot.Submission) error {
	prior := latest.ID
	next := &models.Submission{
		ID:             models.NewID(),
		ClassroomID:    latest.ClassroomID,
		AssignmentID:   latest.AssignmentID,
		Version:        latest.Version + 1,
		IsLatest:       false,
		PriorVersionID: &prior,
		EnrollmentID:   m.enrollment(in.StudentID),
	}
	if err := next.ApplySubmission(in, false); err != nil {
		return err
	}
	if err := m.tx.Create(next).Error; err != nil {
		return fmt.Errorf("failed to insert submission version: %w", err)
	}

	flip := m.tx.Model(&models.Submission{}).
		Where("id = ? AND is_latest = ?", latest.ID, true).
		Update("is_latest", false)
	if flip.Error != nil {
		return fmt.Errorf("failed to supersede version %d: %w", latest.Version, flip.Error)
	}
	if flip.RowsAffected != 1 {
		if err := m.tx.Delete(&models.Submission{}, "id = ?", next.ID).Error; err != nil {
			return fmt.Errorf("failed to undo submission version: %w", err)
		}
		return &reconcile.ConflictError{
			Entity: "submission",
			Key:    SubmissionKey(in.AssignmentID, in.ID),
			Reason: "latest version changed concurrently",
		}
	}

	if err := m.tx.Model(&models.Submission{}).Where("id = ?", next.ID).Update("is_latest", true).Error; err != nil {
		return fmt.Errorf("failed to promote submission version: %w", err)
	}
	return nil
}

// seedUnchanged records snapshot grades on versions whose content did not change.
func (m *submissionMutator) seedUnchanged(plan *SubmissionPlan) error {
	for _, r := range plan.Results {
		if r.Outcome != reconcile.OutcomeUnchanged {
			continue
		}
		grade, ok := m.plan.Grades[r.Key]
		if !ok {
			continue
		}
		if err := m.seedGrade(r.Stored.ID, grade); err != nil {
			return err
		}
		err := m.tx.Model(&models.Submission{}).Where("id = ?", r.Stored.ID).
			Update("status", snapshot.StatusGraded).Error
		if err != nil {
			return fmt.Errorf("failed to mark submission graded: %w", err)
		}
	}
	return nil
}

func (m *submissionMutator) seedGrade(submissionID string, grade snapshot.Grade) error {
	if err := m.tx.Create(models.NewGrade(submissionID, grade, models.GradeSourceSnapshot)).Error; err != nil {
		return fmt.Errorf("failed to insert grade: %w", err)
	}
	m.seeded++
	return nil
}

func (m *submissionMutator) enrollment(studentID string) *string {
	if id, ok := m.enrollments[studentID]; ok {
		return &id
	}
	return nil
}

func submissionColumns(s *models.Submission) map[string]any {
	return map[string]any{
		"enrollment_id":     s.EnrollmentID,
		"student_id":        s.StudentID,
		"student_email":     s.StudentEmail,
		"student_name":      s.StudentName,
		"content":           s.Content,
		"attachments":       s.Attachments,
		"source_status":     s.SourceStatus,
		"status":            s.Status,
		"late":              s.Late,
		"alternate_link":    s.AlternateLink,
		"submitted_at":      s.SubmittedAt,
		"source_updated_at": s.SourceUpdatedAt,
	}
}
