package models

import "encoding/json"

// StringSet is an insertion-ordered set of strings. It serializes to a JSON
// array and back without losing order, so a serialize/deserialize/serialize
// round trip is byte-identical.
type StringSet struct {
	items []string
}

// NewStringSet creates a set seeded with the given values (duplicates dropped).
func NewStringSet(values ...string) StringSet {
	var s StringSet
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts a value, returning true if it was not already present.
func (s *StringSet) Add(value string) bool {
	if s.Has(value) {
		return false
	}
	s.items = append(s.items, value)
	return true
}

// Has reports whether the value is in the set.
func (s *StringSet) Has(value string) bool {
	for _, v := range s.items {
		if v == value {
			return true
		}
	}
	return false
}

// Len returns the number of values in the set.
func (s *StringSet) Len() int {
	return len(s.items)
}

// Values returns the values in insertion order. The returned slice is a copy.
func (s *StringSet) Values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// MarshalJSON serializes the set as an ordered array. An empty set marshals
// to [] rather than null so round trips stay stable.
func (s StringSet) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// UnmarshalJSON restores the set from an array, dropping duplicates while
// preserving first-seen order.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	s.items = nil
	for _, v := range values {
		s.Add(v)
	}
	return nil
}
