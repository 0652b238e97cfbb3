package diff

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"classroom-sync/core/database"
	"classroom-sync/feature/classroom/models"
	"classroom-sync/feature/classroom/reconcile"
	"classroom-sync/feature/classroom/store"
	"classroom-sync/feature/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	st := store.New(db)
	require.NoError(t, st.AutoMigrate(context.Background()))
	return st
}

func fixture() *snapshot.Snapshot {
	submitted := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &snapshot.Snapshot{
		Teacher: snapshot.Teacher{Email: "t@school.edu", DisplayName: "T"},
		Classrooms: []snapshot.Classroom{{
			ID:          "c1",
			Name:        "Algebra",
			Students:    []snapshot.Student{{ID: "s1", Name: "Ana"}, {ID: "s2", Name: "Ben"}},
			Assignments: []snapshot.Assignment{{ID: "a1", Title: "Essay", Type: snapshot.AssignmentWritten, MaxPoints: 10}},
			Submissions: []snapshot.Submission{{
				ID: "x1", AssignmentID: "a1", StudentID: "s1", Content: "draft",
				Status: snapshot.StatusGraded, SubmittedAt: &submitted,
				Grade: &snapshot.Grade{Score: 8, MaxScore: 10, GradedBy: snapshot.GradedByAI, GradedAt: submitted},
			}},
		}},
	}
}

func importSnapshot(t *testing.T, st *store.Store, snap *snapshot.Snapshot) {
	t.Helper()
	ctx := context.Background()
	state, err := st.LoadTeacherState(ctx, snap.Teacher.Email, snap.ClassroomIDs())
	require.NoError(t, err)

	plan := reconcile.BuildPlan(state, snap, reconcile.Policy{})
	session := reconcile.NewSession(st.DB(), plan, zap.NewNop())
	require.True(t, session.ApplyTeacher(ctx).Succeeded())
	require.True(t, session.ApplyClassrooms(ctx).Succeeded())
	for _, room := range plan.Rooms {
		for _, g := range session.ApplyClassroom(ctx, room) {
			require.True(t, g.Succeeded(), g.Name)
		}
	}
}

func countRows(t *testing.T, st *store.Store) int64 {
	t.Helper()
	var total int64
	for _, m := range models.All() {
		var n int64
		require.NoError(t, st.DB().Model(m).Count(&n).Error)
		total += n
	}
	return total
}

func TestPreview_FirstImport(t *testing.T) {
	st := newStore(t)

	result, err := Preview(context.Background(), st, fixture(), reconcile.Policy{})
	require.NoError(t, err)

	assert.True(t, result.IsFirstImport)
	assert.Nil(t, result.Existing)
	assert.Equal(t, &Changes{
		NewClassrooms:  1,
		NewStudents:    2,
		NewAssignments: 1,
		NewSubmissions: 1,
		GradesToRecord: 1,
	}, result.Changes)
	assert.Equal(t, New{ClassroomCount: 1, TotalAssignments: 1, TotalSubmissions: 1}, result.New)
	assert.Zero(t, countRows(t, st))
}

func TestPreview_Unchanged(t *testing.T) {
	st := newStore(t)
	importSnapshot(t, st, fixture())

	result, err := Preview(context.Background(), st, fixture(), reconcile.Policy{})
	require.NoError(t, err)

	assert.False(t, result.IsFirstImport)
	require.NotNil(t, result.Existing)
	assert.Equal(t, 1, result.Existing.ClassroomCount)
	assert.Equal(t, &Changes{}, result.Changes)
	assert.Empty(t, result.Mismatches)
}

func TestPreview_Changes(t *testing.T) {
	st := newStore(t)
	importSnapshot(t, st, fixture())
	before := countRows(t, st)

	next := fixture()
	c := &next.Classrooms[0]
	c.Name = "Algebra II"
	c.Students = c.Students[:1]
	c.Assignments = append(c.Assignments, snapshot.Assignment{ID: "a2", Title: "Quiz", Type: snapshot.AssignmentQuiz})
	c.Submissions[0].Content = "final"
	c.Submissions = append(c.Submissions, snapshot.Submission{ID: "x2", AssignmentID: "a2", StudentID: "s1", Status: snapshot.StatusPending})
	next.Classrooms = append(next.Classrooms, snapshot.Classroom{ID: "c2", Name: "Geometry"})

	result, err := Preview(context.Background(), st, next, reconcile.Policy{})
	require.NoError(t, err)

	assert.Equal(t, &Changes{
		NewClassrooms:               1,
		ChangedClassrooms:           1,
		StudentsWhoWouldBeArchived:  1,
		NewAssignments:              1,
		NewSubmissions:              1,
		SubmissionsThatWouldVersion: 1,
	}, result.Changes)
	assert.Equal(t, New{ClassroomCount: 2, TotalAssignments: 2, TotalSubmissions: 2}, result.New)

	var entities []string
	for _, m := range result.Mismatches {
		entities = append(entities, m.Entity+":"+m.Key)
	}
	assert.ElementsMatch(t, []string{"classroom:c1", "submission:a1/x1"}, entities)

	assert.Equal(t, before, countRows(t, st))
}
