package classroom_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"classroom-sync/core/database"
	"classroom-sync/core/lock"
	"classroom-sync/core/storage"
	"classroom-sync/feature/classroom"
	"classroom-sync/feature/classroom/importer"
	"classroom-sync/feature/classroom/models"
	"classroom-sync/feature/classroom/store"
	"classroom-sync/feature/snapshot"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	st := store.New(db)
	require.NoError(t, st.AutoMigrate(context.Background()))
	return st
}

func newFeature(st *store.Store, client storage.Client, opts classroom.Options) *classroom.Feature {
	locker := lock.NewKeyedMutex()
	imp := importer.New(st, locker, nil, nil, zap.NewNop(), importer.Options{Concurrency: 2, Preview: true})
	return classroom.NewFeature(st, imp, locker, nil, client, zap.NewNop(), opts)
}

func newApp(t *testing.T, f *classroom.Feature) *fiber.App {
	t.Helper()
	app := fiber.New()
	require.NoError(t, f.Load(app))
	return app
}

func fixture() *snapshot.Snapshot {
	submitted := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &snapshot.Snapshot{
		Teacher:  snapshot.Teacher{Email: "t@school.edu", DisplayName: "T"},
		Metadata: snapshot.Metadata{SchemaVersion: snapshot.CurrentSchemaVersion},
		Classrooms: []snapshot.Classroom{{
			ID:          "c1",
			Name:        "Algebra",
			Students:    []snapshot.Student{{ID: "s1", Name: "Ana"}, {ID: "s2", Name: "Ben"}},
			Assignments: []snapshot.Assignment{{ID: "a1", Title: "Essay", Type: snapshot.AssignmentWritten, MaxPoints: 100}},
			Submissions: []snapshot.Submission{
				{ID: "x1", AssignmentID: "a1", StudentID: "s1", Content: "draft", Status: snapshot.StatusSubmitted, SubmittedAt: &submitted},
				{
					ID: "x2", AssignmentID: "a1", StudentID: "s2", Content: "mine", Status: snapshot.StatusGraded, SubmittedAt: &submitted,
					Grade: &snapshot.Grade{Score: 90, MaxScore: 100, GradedBy: snapshot.GradedByTeacher, GradedAt: submitted},
				},
			},
		}},
	}
}

func body(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func do(t *testing.T, app *fiber.App, method, target string, payload io.Reader) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, payload)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func latestSubmissionID(t *testing.T, st *store.Store, externalID string) string {
	t.Helper()
	var sub models.Submission
	require.NoError(t, st.DB().Where("external_id = ? AND is_latest = ?", externalID, true).Take(&sub).Error)
	return sub.ID
}

func TestHandleImport(t *testing.T) {
	st := newStore(t)
	app := newApp(t, newFeature(st, nil, classroom.Options{}))

	status, res := do(t, app, fiber.MethodPost, "/classroom/import", body(t, fixture()))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, string(importer.OutcomeSucceeded), res["outcome"])
	assert.Equal(t, "t@school.edu", res["teacher"])
	assert.NotEmpty(t, res["importId"])

	t.Run("Reimport changes nothing", func(t *testing.T) {
		status, res := do(t, app, fiber.MethodPost, "/classroom/import", body(t, fixture()))
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, string(importer.OutcomeSucceeded), res["outcome"])
		assert.Contains(t, res["summary"], "no changes")
	})

	t.Run("Invalid snapshot", func(t *testing.T) {
		status, res := do(t, app, fiber.MethodPost, "/classroom/import", strings.NewReader(`{"teacher":{}}`))
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Equal(t, "invalid snapshot", res["error"])
		assert.NotEmpty(t, res["problems"])
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		status, _ := do(t, app, fiber.MethodPost, "/classroom/import", strings.NewReader(`{`))
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	})
}

func TestHandlePreview(t *testing.T) {
	st := newStore(t)
	app := newApp(t, newFeature(st, nil, classroom.Options{}))

	status, res := do(t, app, fiber.MethodPost, "/classroom/preview", body(t, fixture()))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, res["isFirstImport"])

	var teachers int64
	require.NoError(t, st.DB().Model(&models.Teacher{}).Count(&teachers).Error)
	assert.Zero(t, teachers, "preview must not write")
}

func TestHandleStats(t *testing.T) {
	st := newStore(t)
	app := newApp(t, newFeature(st, nil, classroom.Options{}))

	status, _ := do(t, app, fiber.MethodGet, "/classroom/teachers/t@school.edu/stats", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, fiber.MethodPost, "/classroom/import", body(t, fixture()))
	require.Equal(t, fiber.StatusOK, status)

	status, res := do(t, app, fiber.MethodGet, "/classroom/teachers/T@School.edu/stats", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, res["totalClassrooms"])
	assert.EqualValues(t, 2, res["totalSubmissions"])
	assert.EqualValues(t, 1, res["ungradedSubmissions"])
	assert.EqualValues(t, 90, res["averageGrade"])
}

func TestHandleGrade(t *testing.T) {
	st := newStore(t)
	app := newApp(t, newFeature(st, nil, classroom.Options{}))

	status, _ := do(t, app, fiber.MethodPost, "/classroom/import", body(t, fixture()))
	require.Equal(t, fiber.StatusOK, status)
	id := latestSubmissionID(t, st, "x1")

	grade := snapshot.Grade{Score: 70, MaxScore: 100, GradedBy: snapshot.GradedByTeacher, GradedAt: time.Now().UTC()}

	t.Run("Records grade", func(t *testing.T) {
		status, res := do(t, app, fiber.MethodPost, "/classroom/submissions/"+id+"/grades", body(t, grade))
		require.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, id, res["submissionId"])
		assert.Equal(t, models.GradeSourceAction, res["source"])

		sub, err := st.FindSubmission(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, snapshot.StatusGraded, sub.Status)
	})

	t.Run("Invalid grade", func(t *testing.T) {
		bad := snapshot.Grade{Score: -1, MaxScore: 100, GradedBy: "robot"}
		status, res := do(t, app, fiber.MethodPost, "/classroom/submissions/"+id+"/grades", body(t, bad))
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Len(t, res["problems"], 2)
	})

	t.Run("Unknown submission", func(t *testing.T) {
		status, _ := do(t, app, fiber.MethodPost, "/classroom/submissions/missing/grades", body(t, grade))
		assert.Equal(t, fiber.StatusNotFound, status)
	})

	t.Run("Superseded version", func(t *testing.T) {
		snap := fixture()
		snap.Classrooms[0].Submissions[0].Content = "final"
		status, _ := do(t, app, fiber.MethodPost, "/classroom/import", body(t, snap))
		require.Equal(t, fiber.StatusOK, status)
		require.NotEqual(t, id, latestSubmissionID(t, st, "x1"), "graded submission should be versioned")

		status, res := do(t, app, fiber.MethodPost, "/classroom/submissions/"+id+"/grades", body(t, grade))
		assert.Equal(t, fiber.StatusConflict, status)
		assert.Contains(t, res["error"], "not the latest")
	})

	t.Run("Malformed body", func(t *testing.T) {
		status, _ := do(t, app, fiber.MethodPost, "/classroom/submissions/"+id+"/grades", strings.NewReader(`{`))
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}

func TestHandleHistory(t *testing.T) {
	st := newStore(t)
	app := newApp(t, newFeature(st, nil, classroom.Options{}))

	status, _ := do(t, app, fiber.MethodPost, "/classroom/import", body(t, fixture()))
	require.Equal(t, fiber.StatusOK, status)

	snap := fixture()
	snap.Classrooms[0].Submissions[1].Content = "rewritten"
	status, _ = do(t, app, fiber.MethodPost, "/classroom/import", body(t, snap))
	require.Equal(t, fiber.StatusOK, status)

	req := httptest.NewRequest(fiber.MethodGet, "/classroom/submissions/"+latestSubmissionID(t, st, "x2")+"/history", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var history []store.VersionRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Submission.Version)
	assert.True(t, history[0].Submission.IsLatest)
	assert.Empty(t, history[0].Grades)
	assert.Len(t, history[1].Grades, 1)

	status, _ = do(t, app, fiber.MethodGet, "/classroom/submissions/missing/history", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHandleImportLatest_NoStorage(t *testing.T) {
	st := newStore(t)
	app := newApp(t, newFeature(st, nil, classroom.Options{}))

	status, res := do(t, app, fiber.MethodPost, "/classroom/import/t@school.edu/latest", nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, res["error"], "not configured")
}
