package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"classroom-sync/core/reconcile"
	"classroom-sync/feature/classroom/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Group statuses.
const (
	GroupSucceeded = "succeeded"
	GroupFailed    = "failed"
	GroupSkipped   = "skipped"
)

// GroupResult reports one entity group, which is written in one transaction.
type GroupResult struct {
	Name      string `json:"name"`
	Entity    string `json:"entity"`
	Classroom string `json:"classroom,omitempty"`
	Status    string `json:"status"`
	// Reason explains a skipped group.
	Reason   string             `json:"reason,omitempty"`
	Counters reconcile.Counters `json:"counters"`
	// GradesSeeded counts grades recorded from the snapshot.
	GradesSeeded int                     `json:"gradesSeeded"`
	Errors       []reconcile.EntityError `json:"errors,omitempty"`
	// Err is set when the group rolled back.
	Err *reconcile.PartialWriteError `json:"-"`
}

// Succeeded reports whether the group committed.
func (g GroupResult) Succeeded() bool {
	return g.Status == GroupSucceeded
}

// Session applies an ImportPlan group by group. Groups for different
// classrooms may run concurrently once ApplyClassrooms has returned.
type Session struct {
	db     *gorm.DB
	plan   *ImportPlan
	logger *zap.Logger
	now    func() time.Time

	mu         sync.Mutex
	teacher    *models.Teacher
	classrooms map[string]*models.Classroom
}

// NewSession prepares plan for writing through db.
func NewSession(db *gorm.DB, plan *ImportPlan, logger *zap.Logger) *Session {
	s := &Session{
		db:         db,
		plan:       plan,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		teacher:    plan.State.Teacher,
		classrooms: make(map[string]*models.Classroom),
	}
	for _, c := range plan.State.Classrooms {
		s.classrooms[c.Classroom.ExternalID] = c.Classroom
	}
	return s
}

// Teacher returns the teacher row, or nil before ApplyTeacher succeeded on a first import.
func (s *Session) Teacher() *models.Teacher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teacher
}

func (s *Session) classroom(externalID string) *models.Classroom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classrooms[externalID]
}

// ApplyTeacher writes the teacher group. Nothing else can be applied when it fails.
func (s *Session) ApplyTeacher(ctx context.Context) GroupResult {
	result := GroupResult{Name: "teacher", Entity: "teacher"}

	var written *models.Teacher
	s.run(ctx, &result, func(ctx context.Context, tx *gorm.DB) error {
		m := &teacherMutator{tx: tx}
		counters, errs, err := reconcile.ApplyPlan(ctx, s.plan.Teacher, m)
		result.Counters, result.Errors = counters, errs
		written = m.row
		return err
	})

	if result.Succeeded() && written != nil {
		s.mu.Lock()
		s.teacher = written
		s.mu.Unlock()
	}
	if s.Teacher() == nil && result.Succeeded() {
		result.Status = GroupFailed
		result.Err = &reconcile.PartialWriteError{Group: result.Name, Err: fmt.Errorf("teacher %s could not be reconciled", s.plan.Snapshot.Teacher.Email)}
	}
	return result
}

// ApplyClassrooms writes the classroom rows. When it fails, only classrooms
// that already existed can have their child groups applied.
func (s *Session) ApplyClassrooms(ctx context.Context) GroupResult {
	result := GroupResult{Name: "classrooms", Entity: "classroom"}

	teacher := s.Teacher()
	if teacher == nil {
		return skipped(result, "teacher was not reconciled")
	}

	rows := make(map[string]*models.Classroom)
	s.run(ctx, &result, func(ctx context.Context, tx *gorm.DB) error {
		m := &classroomMutator{tx: tx, teacherID: teacher.ID, rows: rows}
		counters, errs, err := reconcile.ApplyPlan(ctx, s.plan.Classrooms, m)
		result.Counters, result.Errors = counters, errs
		return err
	})

	if result.Succeeded() {
		s.mu.Lock()
		for id, row := range rows {
			s.classrooms[id] = row
		}
		s.mu.Unlock()
	}
	return result
}

// ApplyClassroom writes the enrollments, assignments and submissions of one
// classroom, each in its own transaction and in that order. Submissions are
// skipped when either earlier group failed. ctx is checked between groups;
// a group that has started always runs to commit or rollback.
func (s *Session) ApplyClassroom(ctx context.Context, room *ClassroomPlan) []GroupResult {
	base := GroupResult{Classroom: room.ExternalID}
	enrollments := withName(base, "enrollments", "enrollment")
	assignments := withName(base, "assignments", "assignment")
	submissions := withName(base, "submissions", "submission")

	if !room.Applicable() {
		reason := "classroom conflict: " + room.Conflict
		return []GroupResult{skipped(enrollments, reason), skipped(assignments, reason), skipped(submissions, reason)}
	}
	row := s.classroom(room.ExternalID)
	if row == nil {
		reason := "classroom was not reconciled"
		return []GroupResult{skipped(enrollments, reason), skipped(assignments, reason), skipped(submissions, reason)}
	}

	enrollmentIDs := make(map[string]string)
	assignmentIDs := make(map[string]string)
	if room.Stored != nil {
		for _, e := range room.Stored.Enrollments {
			enrollmentIDs[e.StudentID] = e.ID
		}
		for _, a := range room.Stored.Assignments {
			assignmentIDs[a.ExternalID] = a.ID
		}
	}

	if err := ctx.Err(); err != nil {
		return []GroupResult{skipped(enrollments, err.Error()), skipped(assignments, err.Error()), skipped(submissions, err.Error())}
	}
	createdEnrollments := make(map[string]string)
	s.run(ctx, &enrollments, func(ctx context.Context, tx *gorm.DB) error {
		m := &enrollmentMutator{tx: tx, classroomID: row.ID, now: s.now(), ids: createdEnrollments}
		counters, errs, err := reconcile.ApplyPlan(ctx, room.Enrollments, m)
		enrollments.Counters, enrollments.Errors = counters, errs
		return err
	})
	if enrollments.Succeeded() {
		for k, v := range createdEnrollments {
			enrollmentIDs[k] = v
		}
	}

	if err := ctx.Err(); err != nil {
		return []GroupResult{enrollments, skipped(assignments, err.Error()), skipped(submissions, err.Error())}
	}
	createdAssignments := make(map[string]string)
	s.run(ctx, &assignments, func(ctx context.Context, tx *gorm.DB) error {
		m := &assignmentMutator{tx: tx, classroomID: row.ID, ids: createdAssignments}
		counters, errs, err := reconcile.ApplyPlan(ctx, room.Assignments, m)
		assignments.Counters, assignments.Errors = counters, errs
		return err
	})
	if assignments.Succeeded() {
		for k, v := range createdAssignments {
			assignmentIDs[k] = v
		}
	}

	switch {
	case !enrollments.Succeeded():
		return []GroupResult{enrollments, assignments, skipped(submissions, "enrollments were not reconciled")}
	case !assignments.Succeeded():
		return []GroupResult{enrollments, assignments, skipped(submissions, "assignments were not reconciled")}
	case ctx.Err() != nil:
		return []GroupResult{enrollments, assignments, skipped(submissions, ctx.Err().Error())}
	}

	s.run(ctx, &submissions, func(ctx context.Context, tx *gorm.DB) error {
		m := &submissionMutator{
			tx:          tx,
			classroomID: row.ID,
			plan:        room,
			assignments: assignmentIDs,
			enrollments: enrollmentIDs,
		}
		counters, errs, err := reconcile.ApplyPlan(ctx, room.Submissions, m)
		submissions.Counters, submissions.Errors = counters, errs
		if err != nil {
			return err
		}
		if err := m.seedUnchanged(room.Submissions); err != nil {
			return err
		}
		submissions.GradesSeeded = m.seeded
		return nil
	})

	return []GroupResult{enrollments, assignments, submissions}
}

// run executes fn in one transaction. The transaction is detached from ctx
// cancellation so a started group is never cut short.
func (s *Session) run(ctx context.Context, result *GroupResult, fn func(ctx context.Context, tx *gorm.DB) error) {
	ctx = context.WithoutCancel(ctx)
	started := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, tx)
	})
	if err != nil {
		result.Status = GroupFailed
		result.Counters = reconcile.Counters{}
		result.Errors = nil
		result.GradesSeeded = 0
		result.Err = &reconcile.PartialWriteError{Group: groupLabel(*result), Err: err}
		s.logger.Warn("entity group rolled back",
			zap.String("group", groupLabel(*result)),
			zap.Error(err))
		return
	}

	result.Status = GroupSucceeded
	s.logger.Debug("entity group committed",
		zap.String("group", groupLabel(*result)),
		zap.Int("changed", result.Counters.Changed()),
		zap.Int("failed", result.Counters.Failed),
		zap.Duration("took", time.Since(started)))
}

func withName(base GroupResult, name, entity string) GroupResult {
	base.Name = name
	base.Entity = entity
	return base
}

func skipped(result GroupResult, reason string) GroupResult {
	result.Status = GroupSkipped
	result.Reason = reason
	return result
}

func groupLabel(g GroupResult) string {
	if g.Classroom == "" {
		return g.Name
	}
	return g.Name + ":" + g.Classroom
}
