package diff

import (
	"context"
	"fmt"

	engine "classroom-sync/core/reconcile"
	"classroom-sync/feature/classroom/reconcile"
	"classroom-sync/feature/classroom/store"
	"classroom-sync/feature/snapshot"
)

// Result is the preview of an import.
type Result struct {
	IsFirstImport bool `json:"isFirstImport"`
	// Existing is nil on a first import.
	Existing *Existing `json:"existing,omitempty"`
	New      New       `json:"new"`
	// Changes is always set. On a first import every entity counts as new.
	Changes *Changes `json:"changes,omitempty"`
	// Mismatches lists the field differences behind every planned update.
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// Existing describes what is already stored for the teacher.
type Existing struct {
	ClassroomCount int `json:"classroomCount"`
}

// New describes the incoming snapshot.
type New struct {
	ClassroomCount   int `json:"classroomCount"`
	TotalAssignments int `json:"totalAssignments"`
	TotalSubmissions int `json:"totalSubmissions"`
}

// Changes counts what an import would do.
type Changes struct {
	NewClassrooms               int `json:"newClassrooms"`
	ChangedClassrooms           int `json:"changedClassrooms"`
	NewStudents                 int `json:"newStudents"`
	StudentsWhoWouldBeArchived  int `json:"studentsWhoWouldBeArchived"`
	NewAssignments              int `json:"newAssignments"`
	ChangedAssignments          int `json:"changedAssignments"`
	NewSubmissions              int `json:"newSubmissions"`
	SubmissionsThatWouldUpdate  int `json:"submissionsThatWouldUpdate"`
	SubmissionsThatWouldVersion int `json:"submissionsThatWouldVersion"`
	SubmissionsThatWouldPatch   int `json:"submissionsThatWouldPatch"`
	GradesToRecord              int `json:"gradesToRecord"`
	Conflicts                   int `json:"conflicts"`
}

// Mismatch is one entity an import would update.
type Mismatch struct {
	Entity    string   `json:"entity"`
	Classroom string   `json:"classroom,omitempty"`
	Key       string   `json:"key"`
	Fields    []string `json:"fields"`
}

// Compute summarizes a plan.
func Compute(plan *reconcile.ImportPlan) *Result {
	snap := plan.Snapshot
	result := &Result{
		IsFirstImport: plan.IsFirstImport,
		New: New{
			ClassroomCount:   len(snap.Classrooms),
			TotalAssignments: snap.CountAssignments(),
			TotalSubmissions: snap.CountSubmissions(),
		},
	}

	changes := &Changes{
		NewClassrooms:     plan.Classrooms.Summary.Create,
		ChangedClassrooms: plan.Classrooms.Summary.Update,
		Conflicts:         plan.Teacher.Summary.Conflicts + plan.Classrooms.Summary.Conflicts,
	}
	result.Mismatches = append(result.Mismatches, mismatches(plan.Teacher, "")...)
	result.Mismatches = append(result.Mismatches, mismatches(plan.Classrooms, "")...)

	for _, room := range plan.Rooms {
		if !room.Applicable() {
			continue
		}

		changes.NewStudents += room.Enrollments.Summary.Create
		for _, r := range room.Enrollments.Results {
			if r.Outcome == engine.OutcomeAbsent && !r.Stored.Archived {
				changes.StudentsWhoWouldBeArchived++
			}
		}

		changes.NewAssignments += room.Assignments.Summary.Create
		changes.ChangedAssignments += room.Assignments.Summary.Update

		changes.NewSubmissions += room.Submissions.Summary.Create
		for _, d := range room.Decisions {
			switch d {
			case reconcile.DecisionVersion:
				changes.SubmissionsThatWouldVersion++
			case reconcile.DecisionPatch:
				changes.SubmissionsThatWouldPatch++
			default:
				changes.SubmissionsThatWouldUpdate++
			}
		}
		changes.GradesToRecord += len(room.Grades)
		changes.Conflicts += room.Enrollments.Summary.Conflicts +
			room.Assignments.Summary.Conflicts +
			room.Submissions.Summary.Conflicts

		result.Mismatches = append(result.Mismatches, mismatches(room.Enrollments, room.ExternalID)...)
		result.Mismatches = append(result.Mismatches, mismatches(room.Assignments, room.ExternalID)...)
		result.Mismatches = append(result.Mismatches, mismatches(room.Submissions, room.ExternalID)...)
	}

	if !plan.IsFirstImport {
		result.Existing = &Existing{ClassroomCount: len(plan.State.Classrooms)}
	}
	result.Changes = changes
	return result
}

// Preview loads the teacher's state and computes the preview. It never writes.
func Preview(ctx context.Context, st *store.Store, snap *snapshot.Snapshot, policy reconcile.Policy) (*Result, error) {
	state, err := st.LoadTeacherState(ctx, snap.Teacher.Email, snap.ClassroomIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load state for preview: %w", err)
	}
	return Compute(reconcile.BuildPlan(state, snap, policy)), nil
}

func mismatches[S, I any](plan *engine.ReconcilePlan[S, I], classroom string) []Mismatch {
	var out []Mismatch
	for _, r := range plan.Results {
		if r.Outcome != engine.OutcomeUpdate {
			continue
		}
		out = append(out, Mismatch{Entity: plan.Entity, Classroom: classroom, Key: r.Key, Fields: r.Mismatch})
	}
	return out
}
