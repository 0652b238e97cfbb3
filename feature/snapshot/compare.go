package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Canonical serializes v with object keys sorted and null members removed, so
// absent and explicit null are the same value. Array order is kept.
func Canonical(v any) ([]byte, error) {
	tree, err := canonicalTree(v)
	if err != nil {
		return nil, err
	}
	// encoding/json writes map keys in sorted order.
	return json.Marshal(tree)
}

// Equal reports whether a and b are deep-equal after canonicalization.
// Values that cannot be encoded are never equal.
func Equal(a, b any) bool {
	ca, err := Canonical(a)
	if err != nil {
		return false
	}
	cb, err := Canonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

// Diff compares the top-level fields of stored and incoming and describes each
// difference as "field: stored=<json> incoming=<json>". Fields are sorted.
func Diff(stored, incoming any) []string {
	left, err := canonicalTree(stored)
	if err != nil {
		return []string{fmt.Sprintf("encode stored: %v", err)}
	}
	right, err := canonicalTree(incoming)
	if err != nil {
		return []string{fmt.Sprintf("encode incoming: %v", err)}
	}

	lm, lok := left.(map[string]any)
	rm, rok := right.(map[string]any)
	if !lok || !rok {
		if Equal(left, right) {
			return nil
		}
		return []string{fmt.Sprintf("value: stored=%s incoming=%s", render(left), render(right))}
	}

	keys := make(map[string]struct{}, len(lm)+len(rm))
	for k := range lm {
		keys[k] = struct{}{}
	}
	for k := range rm {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var mismatches []string
	for _, k := range sorted {
		l, r := lm[k], rm[k]
		if Equal(l, r) {
			continue
		}
		mismatches = append(mismatches, fmt.Sprintf("%s: stored=%s incoming=%s", k, render(l), render(r)))
	}
	return mismatches
}

func canonicalTree(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	return prune(tree), nil
}

func prune(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if child == nil {
				delete(t, k)
				continue
			}
			t[k] = prune(child)
		}
		return t
	case []any:
		for i := range t {
			t[i] = prune(t[i])
		}
		return t
	default:
		return v
	}
}

const maxRendered = 80

func render(v any) string {
	if v == nil {
		return "null"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	s := string(data)
	if len(s) > maxRendered {
		s = s[:maxRendered] + "..."
	}
	return s
}
