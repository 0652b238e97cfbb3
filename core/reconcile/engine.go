package reconcile

import (
	"sort"
)

// BuildPlan pairs stored and incoming entities by natural key and decides an
// outcome for each key. It performs no writes.
//
// Keys that appear more than once on either side, or that are empty, are
// reported as conflicts instead of being guessed at.
func BuildPlan[S, I any](adapter Adapter[S, I], stored []S, incoming []I) *ReconcilePlan[S, I] {
	storedIndex := make(map[string]S, len(stored))
	storedDup := make(map[string]bool)
	for _, s := range stored {
		key := adapter.StoredKey(s)
		if _, exists := storedIndex[key]; exists {
			storedDup[key] = true
			continue
		}
		storedIndex[key] = s
	}

	incomingIndex := make(map[string]I, len(incoming))
	incomingDup := make(map[string]bool)
	order := make([]string, 0, len(incoming))
	for _, in := range incoming {
		key := adapter.IncomingKey(in)
		if _, exists := incomingIndex[key]; exists {
			incomingDup[key] = true
			continue
		}
		incomingIndex[key] = in
		order = append(order, key)
	}

	plan := &ReconcilePlan[S, I]{
		Entity:  adapter.Name(),
		Results: make([]ReconcileResult[S, I], 0, len(order)+len(storedIndex)),
	}

	for _, key := range order {
		plan.Results = append(plan.Results, buildResult(adapter, key, storedIndex, incomingIndex, storedDup, incomingDup))
	}

	// Stored-only keys follow, sorted for deterministic output.
	var absent []string
	for key := range storedIndex {
		if _, seen := incomingIndex[key]; !seen {
			absent = append(absent, key)
		}
	}
	sort.Strings(absent)
	for _, key := range absent {
		plan.Results = append(plan.Results, buildResult(adapter, key, storedIndex, incomingIndex, storedDup, incomingDup))
	}

	plan.Summary = summarize(plan.Results)
	return plan
}

// buildResult creates a ReconcileResult for a single key.
func buildResult[S, I any](
	adapter Adapter[S, I],
	key string,
	storedIndex map[string]S,
	incomingIndex map[string]I,
	storedDup, incomingDup map[string]bool,
) ReconcileResult[S, I] {
	s, hasStored := storedIndex[key]
	in, hasIncoming := incomingIndex[key]

	result := ReconcileResult[S, I]{
		Key:         key,
		Stored:      s,
		Incoming:    in,
		HasStored:   hasStored,
		HasIncoming: hasIncoming,
		Mismatch:    []string{},
	}

	switch {
	case key == "":
		result.Outcome = OutcomeConflict
		result.Reason = "empty natural key"
	case incomingDup[key]:
		result.Outcome = OutcomeConflict
		result.Reason = "duplicate key in snapshot"
	case storedDup[key]:
		result.Outcome = OutcomeConflict
		result.Reason = "duplicate key in stored state"
	case hasStored && hasIncoming:
		result.Mismatch = adapter.CompareFields(s, in)
		if len(result.Mismatch) == 0 {
			result.Outcome = OutcomeUnchanged
		} else {
			result.Outcome = OutcomeUpdate
		}
	case hasIncoming:
		result.Outcome = OutcomeCreate
	default:
		result.Outcome = OutcomeAbsent
	}

	return result
}

func summarize[S, I any](results []ReconcileResult[S, I]) PlanSummary {
	summary := PlanSummary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeCreate:
			summary.Create++
		case OutcomeUpdate:
			summary.Update++
		case OutcomeUnchanged:
			summary.Unchanged++
		case OutcomeAbsent:
			summary.Absent++
		case OutcomeConflict:
			summary.Conflicts++
		}
	}
	return summary
}

// MarkConflict turns the result for key into a conflict after planning, for
// rules that need more context than the adapter has. It reports whether key was found.
func (p *ReconcilePlan[S, I]) MarkConflict(key, reason string) bool {
	for i := range p.Results {
		if p.Results[i].Key != key {
			continue
		}
		p.Results[i].Outcome = OutcomeConflict
		p.Results[i].Reason = reason
		p.Summary = summarize(p.Results)
		return true
	}
	return false
}
