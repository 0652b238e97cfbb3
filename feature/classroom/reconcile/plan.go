package reconcile

import (
	"fmt"

	"classroom-sync/core/reconcile"
	"classroom-sync/feature/classroom/models"
	"classroom-sync/feature/classroom/store"
	"classroom-sync/feature/snapshot"
)

// Policy tunes how changed submissions are written.
type Policy struct {
	// PatchCosmeticChanges lets a graded submission whose gradable payload is
	// unchanged take a metadata patch instead of a new version.
	PatchCosmeticChanges bool
}

// Decision is how a changed submission will be written.
type Decision string

const (
	// DecisionCorrect updates the latest version in place; it has no grade to lose.
	DecisionCorrect Decision = "correct"
	// DecisionVersion appends a new version and leaves the graded one untouched.
	DecisionVersion Decision = "version"
	// DecisionPatch rewrites metadata on a graded version whose gradable payload is unchanged.
	DecisionPatch Decision = "patch"
)

type (
	TeacherPlan    = reconcile.ReconcilePlan[*models.Teacher, snapshot.Teacher]
	ClassroomsPlan = reconcile.ReconcilePlan[*models.Classroom, snapshot.Classroom]
	EnrollmentPlan = reconcile.ReconcilePlan[*models.Enrollment, snapshot.Student]
	AssignmentPlan = reconcile.ReconcilePlan[*models.Assignment, snapshot.Assignment]
	SubmissionPlan = reconcile.ReconcilePlan[*models.Submission, snapshot.Submission]
)

// ImportPlan is the complete, write-free outcome of comparing a snapshot with
// a teacher's persisted state.
type ImportPlan struct {
	Snapshot      *snapshot.Snapshot
	State         *store.TeacherState
	Policy        Policy
	IsFirstImport bool
	Teacher       *TeacherPlan
	Classrooms    *ClassroomsPlan
	// Rooms holds one plan per incoming classroom, in snapshot order.
	Rooms []*ClassroomPlan
}

// ClassroomPlan holds the child plans of one incoming classroom.
type ClassroomPlan struct {
	ExternalID string
	Name       string
	// Stored is nil when the classroom is new.
	Stored *store.ClassroomState
	// Conflict is set when the classroom itself cannot be reconciled; no child
	// plan is applied then.
	Conflict    string
	Enrollments *EnrollmentPlan
	Assignments *AssignmentPlan
	Submissions *SubmissionPlan
	// Decisions covers every submission with an update outcome, by key.
	Decisions map[string]Decision
	// Grades holds snapshot grades to record, by submission key. Only
	// submissions with no grade on any version are listed.
	Grades map[string]snapshot.Grade
}

// BuildPlan compares snap with state. It performs no writes and does not
// modify either argument; adapters compare normalized copies.
func BuildPlan(state *store.TeacherState, snap *snapshot.Snapshot, policy Policy) *ImportPlan {
	if state == nil {
		state = &store.TeacherState{Foreign: map[string]*models.Classroom{}}
	}

	plan := &ImportPlan{
		Snapshot:      snap,
		State:         state,
		Policy:        policy,
		IsFirstImport: state.Teacher == nil,
	}

	var teachers []*models.Teacher
	if state.Teacher != nil {
		teachers = append(teachers, state.Teacher)
	}
	plan.Teacher = reconcile.BuildPlan[*models.Teacher, snapshot.Teacher](teacherAdapter{}, teachers, []snapshot.Teacher{snap.Teacher})
	plan.Classrooms = reconcile.BuildPlan[*models.Classroom, snapshot.Classroom](classroomAdapter{}, state.ClassroomRows(), snap.Classrooms)

	conflicts := make(map[string]string)
	for _, r := range plan.Classrooms.Results {
		if r.Outcome == reconcile.OutcomeConflict {
			conflicts[r.Key] = r.Reason
			continue
		}
		if _, foreign := state.Foreign[r.Key]; foreign && r.Outcome == reconcile.OutcomeCreate {
			reason := "classroom is owned by another teacher"
			plan.Classrooms.MarkConflict(r.Key, reason)
			conflicts[r.Key] = reason
		}
	}

	seen := make(map[string]bool)
	for _, c := range snap.Classrooms {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		room := &ClassroomPlan{
			ExternalID: c.ID,
			Name:       c.Name,
			Stored:     state.Classroom(c.ID),
			Conflict:   conflicts[c.ID],
		}
		if room.Conflict == "" {
			planClassroom(room, c, policy)
		}
		plan.Rooms = append(plan.Rooms, room)
	}

	return plan
}

func planClassroom(room *ClassroomPlan, c snapshot.Classroom, policy Policy) {
	stored := room.Stored
	if stored == nil {
		stored = &store.ClassroomState{}
	}

	room.Enrollments = reconcile.BuildPlan[*models.Enrollment, snapshot.Student](enrollmentAdapter{}, stored.Enrollments, c.Students)
	room.Assignments = reconcile.BuildPlan[*models.Assignment, snapshot.Assignment](assignmentAdapter{}, stored.Assignments, c.Assignments)
	room.Submissions = reconcile.BuildPlan[*models.Submission, snapshot.Submission](submissionAdapter{}, stored.LatestSubmissions(), c.Submissions)
	room.Decisions = make(map[string]Decision)
	room.Grades = make(map[string]snapshot.Grade)

	known := make(map[string]bool)
	for _, a := range stored.Assignments {
		known[a.ExternalID] = true
	}
	for _, a := range c.Assignments {
		known[a.ID] = true
	}

	for _, r := range room.Submissions.Results {
		if !r.HasIncoming || r.Outcome == reconcile.OutcomeConflict {
			continue
		}
		if !known[r.Incoming.AssignmentID] {
			room.Submissions.MarkConflict(r.Key, fmt.Sprintf("unknown assignment %s", r.Incoming.AssignmentID))
			continue
		}

		chainGraded := false
		if r.HasStored {
			chainGraded = stored.ChainHasGrade(r.Stored.AssignmentID, r.Stored.ExternalID)
		}

		if r.Outcome == reconcile.OutcomeUpdate {
			room.Decisions[r.Key] = decide(stored, r.Stored, r.Incoming, policy)
		}
		if r.Incoming.Grade != nil && !chainGraded {
			room.Grades[r.Key] = *r.Incoming.Grade
		}
	}
}

// decide picks the write path for a changed submission.
func decide(stored *store.ClassroomState, latest *models.Submission, incoming snapshot.Submission, policy Policy) Decision {
	if !stored.HasGrade(latest.ID) {
		return DecisionCorrect
	}
	if policy.PatchCosmeticChanges && snapshot.GradableEqual(latest.ToSnapshot(), incoming) {
		return DecisionPatch
	}
	return DecisionVersion
}

// Applicable reports whether the classroom's child groups can be applied.
func (c *ClassroomPlan) Applicable() bool {
	return c.Conflict == ""
}
