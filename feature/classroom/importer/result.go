package importer

import (
	"fmt"
	"strings"

	engine "classroom-sync/core/reconcile"
	"classroom-sync/feature/classroom/diff"
	"classroom-sync/feature/classroom/reconcile"
	"classroom-sync/feature/classroom/stats"
)

// Phase is a state of the import state machine.
type Phase string

const (
	PhaseValidating  Phase = "validating"
	PhaseDiffing     Phase = "diffing"
	PhaseReconciling Phase = "reconciling"
	PhaseAggregating Phase = "aggregating"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// Outcome tells a caller how an import ended.
type Outcome string

const (
	// OutcomeSucceeded means every group committed without entity errors.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeSucceededWithErrors means some groups or entities failed. Retrying is safe.
	OutcomeSucceededWithErrors Outcome = "succeeded_with_errors"
	// OutcomeAborted means nothing was written.
	OutcomeAborted Outcome = "aborted"
)

// EntityCounters holds counters per entity type.
type EntityCounters struct {
	Teachers     engine.Counters `json:"teachers"`
	Classrooms   engine.Counters `json:"classrooms"`
	Enrollments  engine.Counters `json:"enrollments"`
	Assignments  engine.Counters `json:"assignments"`
	Submissions  engine.Counters `json:"submissions"`
	GradesSeeded int             `json:"gradesSeeded"`
}

// ByEntity returns the counters for an entity name, or nil.
func (c *EntityCounters) ByEntity(entity string) *engine.Counters {
	switch entity {
	case "teacher":
		return &c.Teachers
	case "classroom":
		return &c.Classrooms
	case "enrollment":
		return &c.Enrollments
	case "assignment":
		return &c.Assignments
	case "submission":
		return &c.Submissions
	}
	return nil
}

// ErrorReport is one failure in a result.
type ErrorReport struct {
	Group   string `json:"group"`
	Entity  string `json:"entity"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

// Result is the report of one import run.
type Result struct {
	ImportID string  `json:"importId"`
	Teacher  string  `json:"teacher"`
	Outcome  Outcome `json:"outcome"`
	State    Phase   `json:"state"`
	// Phases lists completed phases in order.
	Phases           []Phase                 `json:"phases"`
	Counters         EntityCounters          `json:"counters"`
	Groups           []reconcile.GroupResult `json:"groups"`
	Errors           []ErrorReport           `json:"errors"`
	Preview          *diff.Result            `json:"preview,omitempty"`
	Stats            *stats.Stats            `json:"stats,omitempty"`
	ProcessingTimeMs int64                   `json:"processingTimeMs"`
	Summary          string                  `json:"summary"`
}

func newResult(importID string) *Result {
	return &Result{
		ImportID: importID,
		State:    PhaseValidating,
		Phases:   []Phase{},
		Groups:   []reconcile.GroupResult{},
		Errors:   []ErrorReport{},
	}
}

func (r *Result) enter(p Phase) {
	r.State = p
}

func (r *Result) complete(p Phase) {
	r.Phases = append(r.Phases, p)
}

func (r *Result) addGroup(g reconcile.GroupResult) {
	r.Groups = append(r.Groups, g)
	label := g.Name
	if g.Classroom != "" {
		label += ":" + g.Classroom
	}

	if c := r.Counters.ByEntity(g.Entity); c != nil {
		c.Merge(g.Counters)
	}
	r.Counters.GradesSeeded += g.GradesSeeded

	for _, e := range g.Errors {
		r.Errors = append(r.Errors, ErrorReport{Group: label, Entity: e.Entity, Key: e.Key, Message: e.Message})
	}
	if g.Err != nil {
		r.Errors = append(r.Errors, ErrorReport{Group: label, Entity: g.Entity, Message: g.Err.Error()})
	}
}

func (r *Result) addError(group string, err error) {
	r.Errors = append(r.Errors, ErrorReport{Group: group, Message: err.Error()})
}

// clean reports whether every group committed or had nothing to do.
func (r *Result) clean() bool {
	if len(r.Errors) > 0 {
		return false
	}
	for _, g := range r.Groups {
		if g.Status != reconcile.GroupSucceeded {
			return false
		}
	}
	return true
}

// summarize builds the one-line summary.
func (r *Result) summarize() string {
	if r.Outcome == OutcomeAborted {
		msg := "import aborted"
		if len(r.Errors) > 0 {
			msg += ": " + r.Errors[len(r.Errors)-1].Message
		}
		return msg
	}

	var parts []string
	entities := []struct {
		name string
		c    engine.Counters
	}{
		{"classrooms", r.Counters.Classrooms},
		{"students", r.Counters.Enrollments},
		{"assignments", r.Counters.Assignments},
		{"submissions", r.Counters.Submissions},
	}
	for _, e := range entities {
		if d := describe(e.c); d != "" {
			parts = append(parts, e.name+" "+d)
		}
	}
	if r.Counters.GradesSeeded > 0 {
		parts = append(parts, fmt.Sprintf("grades %d recorded", r.Counters.GradesSeeded))
	}
	if len(parts) == 0 {
		parts = append(parts, "no changes")
	}

	line := fmt.Sprintf("%s for %s: %s", r.Outcome, r.Teacher, strings.Join(parts, "; "))
	if n := len(r.Errors); n > 0 {
		line += fmt.Sprintf(" (%d errors)", n)
	}
	return line
}

func describe(c engine.Counters) string {
	var out []string
	add := func(n int, label string) {
		if n > 0 {
			out = append(out, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(c.Created, "created")
	add(c.Updated, "updated")
	add(c.Archived, "archived")
	add(c.Versioned, "versioned")
	add(c.GradesPreserved, "grades preserved")
	add(c.Patched, "patched")
	add(c.Failed, "failed")
	return strings.Join(out, ", ")
}
