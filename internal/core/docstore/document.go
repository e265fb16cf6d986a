package docstore

import (
	"encoding/json"
	"fmt"
)

// Collection names used by the feed client.
const (
	CollectionPosts = "posts"
	CollectionUsers = "users"
)

// Fields is the schema-less body of a document.
// Values follow encoding/json decoding rules: numbers are float64,
// arrays are []any and nested objects are map[string]any.
type Fields map[string]any

// Document is a single record addressed by collection and id
type Document struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Filter selects documents whose top-level fields equal every value in the filter.
// A nil or empty filter matches all documents.
type Filter map[string]any

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{ID: d.ID, Fields: d.Fields.Clone()}
}

// Clone returns a deep copy of the fields
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Fields:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Normalize converts arbitrary Go values into their JSON-decoded form so that
// stores compare and return values the same way regardless of backend.
func Normalize(fields Fields) (Fields, error) {
	if fields == nil {
		return Fields{}, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	var out Fields
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	if out == nil {
		out = Fields{}
	}
	return out, nil
}

// Matches reports whether the fields satisfy the filter.
// Both sides are expected to be normalized.
func (f Filter) Matches(fields Fields) bool {
	for k, want := range f {
		got, ok := fields[k]
		if !ok {
			return false
		}
		if !jsonEqual(got, want) {
			return false
		}
	}
	return true
}

func jsonEqual(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ra) == string(rb)
}

// Merge applies a partial update to the fields and returns the result.
// Keys present in patch replace the existing value; other keys are kept.
func (f Fields) Merge(patch Fields) Fields {
	out := f.Clone()
	if out == nil {
		out = make(Fields, len(patch))
	}
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}
