package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	ID    string
	Value string
}

// itemAdapter treats both sides as the same item type.
type itemAdapter struct{}

func (itemAdapter) Name() string              { return "item" }
func (itemAdapter) StoredKey(s item) string   { return s.ID }
func (itemAdapter) IncomingKey(i item) string { return i.ID }
func (itemAdapter) CompareFields(s, i item) []string {
	if s.Value != i.Value {
		return []string{fmt.Sprintf("value: stored=%s incoming=%s", s.Value, i.Value)}
	}
	return nil
}

func outcomes(plan *ReconcilePlan[item, item]) map[string]Outcome {
	m := make(map[string]Outcome)
	for _, r := range plan.Results {
		m[r.Key] = r.Outcome
	}
	return m
}

func TestBuildPlan_Outcomes(t *testing.T) {
	stored := []item{{"a", "1"}, {"b", "2"}, {"z", "9"}, {"c", "3"}}
	incoming := []item{{"b", "2"}, {"a", "changed"}, {"d", "4"}}

	plan := BuildPlan[item, item](itemAdapter{}, stored, incoming)

	assert.Equal(t, "item", plan.Entity)
	assert.Equal(t, map[string]Outcome{
		"a": OutcomeUpdate,
		"b": OutcomeUnchanged,
		"c": OutcomeAbsent,
		"d": OutcomeCreate,
		"z": OutcomeAbsent,
	}, outcomes(plan))

	// Snapshot order first, then absent keys sorted.
	keys := make([]string, 0, len(plan.Results))
	for _, r := range plan.Results {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"b", "a", "d", "c", "z"}, keys)

	assert.Equal(t, PlanSummary{Total: 5, Create: 1, Update: 1, Unchanged: 1, Absent: 2}, plan.Summary)
	assert.Equal(t, []string{"value: stored=1 incoming=changed"}, plan.Results[1].Mismatch)
}

func TestBuildPlan_Conflicts(t *testing.T) {
	t.Run("Duplicate incoming", func(t *testing.T) {
		plan := BuildPlan[item, item](itemAdapter{}, nil, []item{{"a", "1"}, {"a", "2"}})
		assert.Len(t, plan.Results, 1)
		assert.Equal(t, OutcomeConflict, plan.Results[0].Outcome)
		assert.Equal(t, "duplicate key in snapshot", plan.Results[0].Reason)
	})

	t.Run("Duplicate stored", func(t *testing.T) {
		plan := BuildPlan[item, item](itemAdapter{}, []item{{"a", "1"}, {"a", "1"}}, []item{{"a", "1"}})
		assert.Equal(t, OutcomeConflict, plan.Results[0].Outcome)
		assert.Equal(t, 1, plan.Summary.Conflicts)
	})

	t.Run("Empty key", func(t *testing.T) {
		plan := BuildPlan[item, item](itemAdapter{}, nil, []item{{"", "1"}})
		assert.Equal(t, OutcomeConflict, plan.Results[0].Outcome)
	})
}

func TestBuildPlan_Empty(t *testing.T) {
	plan := BuildPlan[item, item](itemAdapter{}, nil, nil)
	assert.Empty(t, plan.Results)
	assert.Equal(t, PlanSummary{}, plan.Summary)
}

func TestReconcilePlan_MarkConflict(t *testing.T) {
	plan := BuildPlan[item, item](itemAdapter{}, nil, []item{{"a", "1"}, {"b", "2"}})

	assert.True(t, plan.MarkConflict("b", "owned elsewhere"))
	assert.False(t, plan.MarkConflict("zzz", "missing"))

	assert.Equal(t, OutcomeConflict, plan.Results[1].Outcome)
	assert.Equal(t, "owned elsewhere", plan.Results[1].Reason)
	assert.Equal(t, PlanSummary{Total: 2, Create: 1, Conflicts: 1}, plan.Summary)
}
