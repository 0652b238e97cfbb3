package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockMutator struct {
	mock.Mock
}

func (m *mockMutator) Create(ctx context.Context, in item) (Effect, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(Effect), args.Error(1)
}

func (m *mockMutator) Update(ctx context.Context, s, in item, mismatch []string) (Effect, error) {
	args := m.Called(ctx, s, in, mismatch)
	return args.Get(0).(Effect), args.Error(1)
}

func (m *mockMutator) Absent(ctx context.Context, s item) (Effect, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(Effect), args.Error(1)
}

func TestApplyPlan(t *testing.T) {
	ctx := context.Background()
	plan := BuildPlan[item, item](itemAdapter{},
		[]item{{"a", "1"}, {"b", "2"}, {"c", "3"}},
		[]item{{"a", "1"}, {"b", "x"}, {"d", "4"}},
	)

	m := new(mockMutator)
	m.On("Create", ctx, item{"d", "4"}).Return(EffectCreated, nil)
	m.On("Update", ctx, item{"b", "2"}, item{"b", "x"}, mock.Anything).Return(EffectVersioned, nil)
	m.On("Absent", ctx, item{"c", "3"}).Return(EffectArchived, nil)

	counters, errs, err := ApplyPlan(ctx, plan, m)
	assert.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, Counters{Created: 1, Unchanged: 1, Archived: 1, Versioned: 1, GradesPreserved: 1}, counters)
	m.AssertExpectations(t)
}

func TestApplyPlan_EntityScopedErrors(t *testing.T) {
	ctx := context.Background()
	plan := BuildPlan[item, item](itemAdapter{},
		[]item{{"a", "1"}},
		[]item{{"a", "2"}, {"b", "1"}, {"b", "2"}, {"c", "3"}},
	)

	m := new(mockMutator)
	m.On("Update", ctx, item{"a", "1"}, item{"a", "2"}, mock.Anything).
		Return(Effect(""), &VersioningInvariantViolation{SubmissionID: "a", Reason: "graded"})
	m.On("Create", ctx, item{"c", "3"}).Return(EffectCreated, nil)

	counters, errs, err := ApplyPlan(ctx, plan, m)
	assert.NoError(t, err)
	assert.Equal(t, 2, counters.Failed)
	assert.Equal(t, 1, counters.Created)
	if assert.Len(t, errs, 2) {
		var violation *VersioningInvariantViolation
		assert.ErrorAs(t, errs[0], &violation)
		var conflict *ConflictError
		assert.ErrorAs(t, errs[1], &conflict)
		assert.Equal(t, "b", errs[1].Key)
	}
}

func TestApplyPlan_FatalError(t *testing.T) {
	ctx := context.Background()
	plan := BuildPlan[item, item](itemAdapter{}, nil, []item{{"a", "1"}, {"b", "2"}})

	m := new(mockMutator)
	m.On("Create", ctx, item{"a", "1"}).Return(Effect(""), errors.New("disk full"))

	_, _, err := ApplyPlan(ctx, plan, m)
	assert.ErrorContains(t, err, "item a: disk full")
	m.AssertNotCalled(t, "Create", ctx, item{"b", "2"})
}

func TestCounters(t *testing.T) {
	var c Counters
	c.Record(EffectCreated)
	c.Record(EffectPatched)
	c.Record(EffectSkipped)
	assert.Equal(t, 2, c.Changed())

	c.Merge(Counters{Versioned: 2, GradesPreserved: 2, Failed: 1})
	assert.Equal(t, Counters{Created: 1, Unchanged: 1, Patched: 1, Versioned: 2, GradesPreserved: 2, Failed: 1}, c)
}

func TestIsEntityScoped(t *testing.T) {
	assert.True(t, IsEntityScoped(&ConflictError{}))
	assert.True(t, IsEntityScoped(&SkipError{Reason: "x"}))
	assert.False(t, IsEntityScoped(errors.New("boom")))
	assert.False(t, IsEntityScoped(&PartialWriteError{Group: "g", Err: errors.New("x")}))

	pw := &PartialWriteError{Group: "submissions", Err: errors.New("deadlock")}
	assert.EqualError(t, pw, "group submissions rolled back: deadlock")
}
