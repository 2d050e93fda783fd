package models

import (
	"encoding/json"
	"testing"
)

func TestStringSetAddAndOrder(t *testing.T) {
	var s StringSet
	if !s.Add("b") || !s.Add("a") || !s.Add("c") {
		t.Fatal("first insertions should report true")
	}
	if s.Add("a") {
		t.Error("duplicate insertion should report false")
	}
	if s.Len() != 3 {
		t.Errorf("expected 3 values, got %d", s.Len())
	}

	values := s.Values()
	want := []string{"b", "a", "c"}
	for i, v := range want {
		if values[i] != v {
			t.Errorf("insertion order lost at %d: expected %q, got %q", i, v, values[i])
		}
	}
}

func TestStringSetMarshalEmpty(t *testing.T) {
	var s StringSet
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty set should marshal to [], got %s", data)
	}
}

func TestStringSetRoundTrip(t *testing.T) {
	s := NewStringSet("slot-1", "slot-2", "slot-1", "slot-3")
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `["slot-1","slot-2","slot-3"]` {
		t.Errorf("unexpected serialized form: %s", data)
	}

	var restored StringSet
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	again, err := json.Marshal(restored)
	if err != nil {
		t.Fatalf("second marshal failed: %v", err)
	}
	if string(again) != string(data) {
		t.Errorf("round trip not stable: %s vs %s", data, again)
	}
}
