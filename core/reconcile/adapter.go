package reconcile

import "context"

// Adapter defines the entity-specific part of a reconciliation.
// S is the persisted representation and I the incoming one.
type Adapter[S, I any] interface {
	// Name returns the entity label used in reports (e.g., "enrollment", "submission").
	Name() string

	// StoredKey returns the natural key of a persisted entity.
	StoredKey(stored S) string

	// IncomingKey returns the natural key of an incoming entity.
	// Stored and incoming keys must agree for the same real-world entity.
	IncomingKey(incoming I) string

	// CompareFields compares normalized field values and returns a list of mismatch
	// descriptions. Each string includes the field label and both values
	// (e.g., "title: stored=Essay incoming=Essay 1"). An empty result means unchanged.
	CompareFields(stored S, incoming I) []string
}

// Mutator applies the writes for a plan. Implementations run inside one
// transaction per entity group; any non entity-scoped error aborts the group.
type Mutator[S, I any] interface {
	// Create persists an entity seen for the first time.
	Create(ctx context.Context, incoming I) (Effect, error)

	// Update reconciles a changed entity. The returned Effect tells how
	// (in place, patched, or versioned).
	Update(ctx context.Context, stored S, incoming I, mismatch []string) (Effect, error)

	// Absent handles a persisted entity missing from the incoming set.
	// Returning EffectUnchanged leaves it alone.
	Absent(ctx context.Context, stored S) (Effect, error)
}
