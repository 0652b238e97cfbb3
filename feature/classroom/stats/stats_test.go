package stats

import (
	"testing"

	"classroom-sync/feature/classroom/models"
	"classroom-sync/feature/classroom/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classroom(scores ...float64) *store.ClassroomState {
	c := &store.ClassroomState{
		Classroom: &models.Classroom{ID: "room", ExternalID: "c1", Name: "Algebra"},
		Enrollments: []*models.Enrollment{
			{ID: "e1", StudentID: "s1"},
			{ID: "e2", StudentID: "s2"},
			{ID: "e3", StudentID: "s3", Archived: true},
		},
		Assignments: []*models.Assignment{{ID: "a1", ExternalID: "a1"}},
		Grades:      map[string][]*models.Grade{},
	}
	for i, score := range scores {
		id := string(rune('a' + i))
		c.Submissions = append(c.Submissions, &models.Submission{ID: id, IsLatest: true})
		if score >= 0 {
			c.Grades[id] = []*models.Grade{{SubmissionID: id, Score: score, MaxScore: 100}}
		}
	}
	return c
}

func TestAggregate(t *testing.T) {
	// -1 marks an ungraded submission.
	state := &store.TeacherState{Classrooms: []*store.ClassroomState{classroom(80, 90, -1)}}

	stats := Aggregate(state)

	assert.Equal(t, 1, stats.TotalClassrooms)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 1, stats.TotalAssignments)
	assert.Equal(t, 3, stats.TotalSubmissions)
	assert.Equal(t, 1, stats.UngradedSubmissions)
	require.NotNil(t, stats.AverageGrade)
	assert.InDelta(t, 85.0, *stats.AverageGrade, 1e-9)

	require.Len(t, stats.Classrooms, 1)
	assert.Equal(t, store.Counts{Students: 2, Assignments: 1, Submissions: 3, Ungraded: 1}, stats.Classrooms[0].Counts())
}

func TestAggregate_NothingGraded(t *testing.T) {
	state := &store.TeacherState{Classrooms: []*store.ClassroomState{classroom(-1, -1, -1)}}

	stats := Aggregate(state)

	assert.Equal(t, 3, stats.UngradedSubmissions)
	assert.Nil(t, stats.AverageGrade)
}

func TestAggregate_ZeroIsAnAverage(t *testing.T) {
	state := &store.TeacherState{Classrooms: []*store.ClassroomState{classroom(0)}}

	stats := Aggregate(state)

	require.NotNil(t, stats.AverageGrade)
	assert.Zero(t, *stats.AverageGrade)
}

func TestAggregate_LatestVersionsOnly(t *testing.T) {
	c := classroom(50)
	// A superseded graded version does not count.
	c.Submissions = append(c.Submissions, &models.Submission{ID: "old", IsLatest: false})
	c.Grades["old"] = []*models.Grade{{SubmissionID: "old", Score: 100, MaxScore: 100}}
	// The latest grade of a version wins.
	c.Grades["a"] = append(c.Grades["a"], &models.Grade{SubmissionID: "a", Score: 70, MaxScore: 100})

	stats := Aggregate(&store.TeacherState{Classrooms: []*store.ClassroomState{c}})

	assert.Equal(t, 1, stats.TotalSubmissions)
	require.NotNil(t, stats.AverageGrade)
	assert.InDelta(t, 70.0, *stats.AverageGrade, 1e-9)
}

func TestAggregate_SkipsZeroMaxScore(t *testing.T) {
	c := classroom(90)
	c.Grades["a"][0].MaxScore = 0

	stats := Aggregate(&store.TeacherState{Classrooms: []*store.ClassroomState{c}})

	assert.Zero(t, stats.UngradedSubmissions)
	assert.Nil(t, stats.AverageGrade)
}

func TestAggregate_Empty(t *testing.T) {
	stats := Aggregate(nil)

	assert.Zero(t, stats.TotalClassrooms)
	assert.Nil(t, stats.AverageGrade)
	assert.NotNil(t, stats.Classrooms)
}
