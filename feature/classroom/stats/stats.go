package stats

import (
	"context"
	"fmt"

	"classroom-sync/feature/classroom/store"
)

// Stats are a teacher's aggregates over persisted state.
type Stats struct {
	TotalClassrooms     int `json:"totalClassrooms"`
	TotalStudents       int `json:"totalStudents"`
	TotalAssignments    int `json:"totalAssignments"`
	TotalSubmissions    int `json:"totalSubmissions"`
	UngradedSubmissions int `json:"ungradedSubmissions"`
	// AverageGrade is nil when no latest version is graded.
	AverageGrade *float64         `json:"averageGrade"`
	Classrooms   []ClassroomStats `json:"classrooms"`
}

// ClassroomStats are the aggregates of one classroom.
type ClassroomStats struct {
	ExternalID          string   `json:"externalId"`
	Name                string   `json:"name"`
	Students            int      `json:"students"`
	Assignments         int      `json:"assignments"`
	Submissions         int      `json:"submissions"`
	UngradedSubmissions int      `json:"ungradedSubmissions"`
	AverageGrade        *float64 `json:"averageGrade"`
}

// Counts returns the teacher aggregates in their stored form.
func (s *Stats) Counts() store.Counts {
	return store.Counts{
		Classrooms:  s.TotalClassrooms,
		Students:    s.TotalStudents,
		Assignments: s.TotalAssignments,
		Submissions: s.TotalSubmissions,
		Ungraded:    s.UngradedSubmissions,
	}
}

// Counts returns the classroom aggregates in their stored form.
func (c ClassroomStats) Counts() store.Counts {
	return store.Counts{
		Students:    c.Students,
		Assignments: c.Assignments,
		Submissions: c.Submissions,
		Ungraded:    c.UngradedSubmissions,
	}
}

// Aggregate computes statistics over state. Only latest submission versions
// count; archived enrollments are excluded from the student total.
func Aggregate(state *store.TeacherState) *Stats {
	out := &Stats{Classrooms: []ClassroomStats{}}
	if state == nil {
		return out
	}

	var all mean
	for _, c := range state.Classrooms {
		cs := ClassroomStats{
			ExternalID:  c.Classroom.ExternalID,
			Name:        c.Classroom.Name,
			Assignments: len(c.Assignments),
		}
		for _, e := range c.Enrollments {
			if !e.Archived {
				cs.Students++
			}
		}

		var room mean
		for _, sub := range c.LatestSubmissions() {
			cs.Submissions++
			grade := c.LatestGrade(sub.ID)
			if grade == nil {
				cs.UngradedSubmissions++
				continue
			}
			if pct, ok := grade.Percentage(); ok {
				room.add(pct)
				all.add(pct)
			}
		}
		cs.AverageGrade = room.value()

		out.TotalClassrooms++
		out.TotalStudents += cs.Students
		out.TotalAssignments += cs.Assignments
		out.TotalSubmissions += cs.Submissions
		out.UngradedSubmissions += cs.UngradedSubmissions
		out.Classrooms = append(out.Classrooms, cs)
	}
	out.AverageGrade = all.value()
	return out
}

// Compute loads the teacher's state and aggregates it.
func Compute(ctx context.Context, st *store.Store, email string) (*Stats, error) {
	state, err := st.LoadTeacherState(ctx, email, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load state for stats: %w", err)
	}
	if state.Teacher == nil {
		return nil, fmt.Errorf("teacher %s: %w", email, store.ErrNotFound)
	}
	return Aggregate(state), nil
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}
