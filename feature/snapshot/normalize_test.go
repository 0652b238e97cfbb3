package snapshot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrTime(t time.Time) *time.Time { return &t }

func sampleSnapshot() *Snapshot {
	submitted := time.Date(2025, 1, 10, 9, 0, 0, 123456789, time.FixedZone("EST", -5*3600))
	return &Snapshot{
		Teacher: Teacher{Email: "t@example.com", DisplayName: "T"},
		Metadata: Metadata{
			FetchedAt:     ptrTime(time.Now()),
			ExpiresAt:     ptrTime(time.Now().Add(time.Hour)),
			Source:        "mock",
			SchemaVersion: CurrentSchemaVersion,
		},
		Classrooms: []Classroom{{
			ID:       "c1",
			Name:     "CS",
			Students: []Student{{ID: "s1", Name: "Alice"}},
			Assignments: []Assignment{{
				ID: "a1", Title: "Quiz", Type: AssignmentQuiz, MaxPoints: 10,
				QuizData: &QuizData{IsQuiz: true, Questions: []json.RawMessage{json.RawMessage(`{"q":1}`)}},
			}},
			Submissions: []Submission{{
				ID: "x1", AssignmentID: "a1", StudentID: "s1", Content: "hello",
				Status:      StatusSubmitted,
				SubmittedAt: &submitted,
				UpdatedAt:   ptrTime(time.Now()),
				Grade:       &Grade{Score: 8, MaxScore: 10, GradedBy: GradedByAI, GradedAt: submitted},
			}},
		}},
	}
}

func TestNormalize_StripsVolatileFields(t *testing.T) {
	in := sampleSnapshot()
	out := Normalize(in)

	assert.Nil(t, out.Metadata.FetchedAt)
	assert.Nil(t, out.Metadata.ExpiresAt)
	assert.Equal(t, "mock", out.Metadata.Source)

	sub := out.Classrooms[0].Submissions[0]
	assert.Nil(t, sub.UpdatedAt)
	require.NotNil(t, sub.SubmittedAt)
	assert.Equal(t, time.UTC, sub.SubmittedAt.Location())
	assert.Equal(t, 123000000, sub.SubmittedAt.Nanosecond())
	assert.NotNil(t, sub.Attachments)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := sampleSnapshot()
	before, err := json.Marshal(in)
	require.NoError(t, err)

	out := Normalize(in)
	out.Classrooms[0].Students[0].Name = "changed"
	out.Classrooms[0].Assignments[0].QuizData.IsQuiz = false
	out.Classrooms[0].Submissions[0].Grade.Score = 0

	after, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.NotNil(t, in.Metadata.FetchedAt)
	assert.NotNil(t, in.Classrooms[0].Submissions[0].UpdatedAt)
}

func TestNormalize_Stability(t *testing.T) {
	a := sampleSnapshot()
	b := sampleSnapshot()
	b.Metadata.FetchedAt = ptrTime(time.Now().Add(48 * time.Hour))
	b.Metadata.ExpiresAt = nil
	b.Classrooms[0].Submissions[0].UpdatedAt = ptrTime(time.Now().Add(-time.Hour))

	ca, err := Canonical(Normalize(a))
	require.NoError(t, err)
	cb, err := Canonical(Normalize(b))
	require.NoError(t, err)
	assert.Equal(t, string(ca), string(cb))

	// Idempotent.
	cc, err := Canonical(Normalize(Normalize(a)))
	require.NoError(t, err)
	assert.Equal(t, string(ca), string(cc))
}

func TestNormalize_Nil(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}
