package reconcile

// Outcome is the planned action for one key.
type Outcome string

const (
	// OutcomeCreate marks a key present only in the incoming set.
	OutcomeCreate Outcome = "create"
	// OutcomeUpdate marks a key present on both sides with field mismatches.
	OutcomeUpdate Outcome = "update"
	// OutcomeUnchanged marks a key present on both sides with equal normalized content.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeAbsent marks a key present only in persisted state.
	OutcomeAbsent Outcome = "absent"
	// OutcomeConflict marks a key that cannot be reconciled safely.
	OutcomeConflict Outcome = "conflict"
)

// ReconcileResult represents the reconciliation output for a single key.
type ReconcileResult[S, I any] struct {
	// Key is the natural identity of the entity.
	Key string `json:"key"`

	// Outcome is the planned action.
	Outcome Outcome `json:"outcome"`

	// Stored is the persisted entity, valid when HasStored.
	Stored S `json:"-"`

	// Incoming is the snapshot entity, valid when HasIncoming.
	Incoming I `json:"-"`

	HasStored   bool `json:"has_stored"`
	HasIncoming bool `json:"has_incoming"`

	// Mismatch contains descriptions of field mismatches between stored and incoming.
	Mismatch []string `json:"mismatch"`

	// Reason explains conflicts.
	Reason string `json:"reason,omitempty"`
}

// ReconcilePlan contains the per-key results for one entity type.
type ReconcilePlan[S, I any] struct {
	// Entity is the adapter name.
	Entity string `json:"entity"`

	// Results holds incoming keys in snapshot order followed by absent keys sorted.
	Results []ReconcileResult[S, I] `json:"results"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a reconcile plan.
type PlanSummary struct {
	Total     int `json:"total"`
	Create    int `json:"create"`
	Update    int `json:"update"`
	Unchanged int `json:"unchanged"`
	Absent    int `json:"absent"`
	Conflicts int `json:"conflicts"`
}

// Effect is what a Mutator actually did for one key.
type Effect string

const (
	EffectCreated   Effect = "created"
	EffectUpdated   Effect = "updated"
	EffectUnchanged Effect = "unchanged"
	EffectArchived  Effect = "archived"
	// EffectVersioned means a new version was written and the prior graded
	// version kept its grade.
	EffectVersioned Effect = "versioned"
	// EffectPatched means only non-gradable metadata was rewritten on a graded version.
	EffectPatched Effect = "patched"
	// EffectSkipped means the key was intentionally left alone.
	EffectSkipped Effect = "skipped"
)

// Counters aggregates effects for one entity type.
type Counters struct {
	Created         int `json:"created"`
	Updated         int `json:"updated"`
	Unchanged       int `json:"unchanged"`
	Archived        int `json:"archived"`
	Versioned       int `json:"versioned"`
	GradesPreserved int `json:"gradesPreserved"`
	Patched         int `json:"patched"`
	Failed          int `json:"failed"`
}

// Record counts one effect.
func (c *Counters) Record(e Effect) {
	switch e {
	case EffectCreated:
		c.Created++
	case EffectUpdated:
		c.Updated++
	case EffectUnchanged, EffectSkipped:
		c.Unchanged++
	case EffectArchived:
		c.Archived++
	case EffectVersioned:
		c.Versioned++
		c.GradesPreserved++
	case EffectPatched:
		c.Patched++
	}
}

// Merge adds other into c.
func (c *Counters) Merge(other Counters) {
	c.Created += other.Created
	c.Updated += other.Updated
	c.Unchanged += other.Unchanged
	c.Archived += other.Archived
	c.Versioned += other.Versioned
	c.GradesPreserved += other.GradesPreserved
	c.Patched += other.Patched
	c.Failed += other.Failed
}

// Changed reports whether any write happened.
func (c Counters) Changed() int {
	return c.Created + c.Updated + c.Archived + c.Versioned + c.Patched
}

// EntityError describes a failure scoped to a single key.
type EntityError struct {
	Entity string `json:"entity"`
	Key    string `json:"key"`
	Err    error  `json:"-"`
	// Message mirrors Err for JSON reports.
	Message string `json:"message"`
}

func (e EntityError) Error() string {
	return e.Entity + " " + e.Key + ": " + e.Message
}

func (e EntityError) Unwrap() error { return e.Err }

// NewEntityError builds an EntityError from err.
func NewEntityError(entity, key string, err error) EntityError {
	return EntityError{Entity: entity, Key: key, Err: err, Message: err.Error()}
}
