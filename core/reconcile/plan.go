package reconcile

import (
	"context"
	"fmt"
)

// ApplyPlan executes a plan through mutator, in plan order.
//
// Conflicts and entity-scoped mutator errors (see IsEntityScoped) are collected
// and counted as failed; the remaining keys still apply. Any other error stops
// the plan and is returned, and the caller is expected to roll back the group.
func ApplyPlan[S, I any](ctx context.Context, plan *ReconcilePlan[S, I], mutator Mutator[S, I]) (Counters, []EntityError, error) {
	var counters Counters
	var errs []EntityError

	for _, result := range plan.Results {
		var (
			effect Effect
			err    error
		)

		switch result.Outcome {
		case OutcomeConflict:
			counters.Failed++
			errs = append(errs, NewEntityError(plan.Entity, result.Key, &ConflictError{
				Entity: plan.Entity,
				Key:    result.Key,
				Reason: result.Reason,
			}))
			continue
		case OutcomeUnchanged:
			counters.Record(EffectUnchanged)
			continue
		case OutcomeCreate:
			effect, err = mutator.Create(ctx, result.Incoming)
		case OutcomeUpdate:
			effect, err = mutator.Update(ctx, result.Stored, result.Incoming, result.Mismatch)
		case OutcomeAbsent:
			effect, err = mutator.Absent(ctx, result.Stored)
		}

		if err != nil {
			if IsEntityScoped(err) {
				counters.Failed++
				errs = append(errs, NewEntityError(plan.Entity, result.Key, err))
				continue
			}
			return counters, errs, fmt.Errorf("%s %s: %w", plan.Entity, result.Key, err)
		}

		counters.Record(effect)
	}

	return counters, errs, nil
}
