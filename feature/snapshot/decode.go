package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationError reports a snapshot that cannot be imported.
// Nothing is written when it is returned.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid snapshot: " + strings.Join(e.Problems, "; ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode reads a raw snapshot, migrates it to the current schema version and
// validates it structurally and field by field.
func Decode(r io.Reader) (*Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ValidationError{Problems: []string{"malformed JSON: " + err.Error()}}
	}
	if doc == nil {
		return nil, &ValidationError{Problems: []string{"snapshot must be a JSON object"}}
	}

	return FromDocument(doc)
}

// FromDocument migrates and validates an already decoded document.
// The document is modified in place by the migration.
func FromDocument(doc map[string]any) (*Snapshot, error) {
	if err := Migrate(doc); err != nil {
		return nil, err
	}

	// Round-trip so the schema sees plain JSON types regardless of what the
	// migration stored.
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode migrated snapshot: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var plain any
	if err := dec.Decode(&plain); err != nil {
		return nil, fmt.Errorf("failed to re-read migrated snapshot: %w", err)
	}

	sch, err := schema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile snapshot schema: %w", err)
	}
	if err := sch.Validate(plain); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, &ValidationError{Problems: schemaProblems(ve)}
		}
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}

	if err := Validate(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Validate checks a typed snapshot. Snapshots built in code go through it too.
func Validate(s *Snapshot) error {
	if s == nil {
		return &ValidationError{Problems: []string{"snapshot is nil"}}
	}
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			problems := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				problems = append(problems, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
			}
			return &ValidationError{Problems: problems}
		}
		return &ValidationError{Problems: []string{err.Error()}}
	}
	return nil
}

// ValidateGrade checks a grade submitted outside a snapshot.
func ValidateGrade(g Grade) error {
	var problems []string
	if err := validate.Struct(g); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return &ValidationError{Problems: []string{err.Error()}}
		}
		for _, fe := range fieldErrs {
			problems = append(problems, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	if g.MaxScore <= 0 {
		problems = append(problems, "maxScore: must be positive")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// schemaProblems flattens the leaf causes of a schema failure.
func schemaProblems(ve *jsonschema.ValidationError) []string {
	var problems []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			problems = append(problems, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(problems)
	return problems
}
