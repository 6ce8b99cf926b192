package domain

import (
	"encoding/json"
	"testing"
)

func TestPollResultNumber(t *testing.T) {
	r := PollResult{
		"total_successful_routes": json.Number("12"),
		"online_nodes":            float64(4),
		"version":                 "1.2.0",
		"broken":                  json.Number("nope"),
		"nothing":                 nil,
	}

	if v, ok := r.Number("total_successful_routes"); !ok || v != 12 {
		t.Fatalf("expected 12, got %v (ok=%v)", v, ok)
	}
	if v, ok := r.Number("online_nodes"); !ok || v != 4 {
		t.Fatalf("expected 4, got %v (ok=%v)", v, ok)
	}
	for _, key := range []string{"version", "broken", "nothing", "missing"} {
		if _, ok := r.Number(key); ok {
			t.Fatalf("expected %q to be rejected as a number", key)
		}
	}
}

func TestPollResultScalar(t *testing.T) {
	r := PollResult{
		"count":   json.Number("123456789012"),
		"healthy": true,
		"name":    "pfs-1",
		"nested":  map[string]any{"a": 1},
	}

	if v, _ := r.Scalar("count"); v != "123456789012" {
		t.Fatalf("expected raw number text, got %q", v)
	}
	if v, _ := r.Scalar("healthy"); v != "true" {
		t.Fatalf("expected true, got %q", v)
	}
	if v, _ := r.Scalar("name"); v != "pfs-1" {
		t.Fatalf("expected pfs-1, got %q", v)
	}
	if _, ok := r.Scalar("nested"); ok {
		t.Fatalf("objects are not scalars")
	}
}

func TestPollResultKeysSorted(t *testing.T) {
	r := PollResult{"b": 1, "a": 2, "c": 3}
	keys := r.Keys()
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Fatalf("unexpected key order: %v", keys)
	}
}
