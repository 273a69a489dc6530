package store

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	var nilPtr *int

	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "undefined becomes null", in: Undefined, want: nil},
		{name: "nil stays nil", in: nil, want: nil},
		{name: "scalar passes through", in: "hello", want: "hello"},
		{name: "typed nil pointer becomes null", in: nilPtr, want: nil},
		{
			name: "nested undefined",
			in:   map[string]any{"a": Undefined, "b": map[string]any{"c": Undefined}},
			want: map[string]any{"a": nil, "b": map[string]any{"c": nil}},
		},
		{
			name: "undefined inside slice",
			in:   []any{"x", Undefined, map[string]any{"y": Undefined}},
			want: []any{"x", nil, map[string]any{"y": nil}},
		},
		{
			name: "already normalized is a no-op",
			in:   map[string]any{"a": nil, "b": map[string]any{"c": nil}},
			want: map[string]any{"a": nil, "b": map[string]any{"c": nil}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %#v, got %#v", tc.want, got)
			}
			again := Normalize(got)
			if !reflect.DeepEqual(again, got) {
				t.Fatalf("normalize is not idempotent: %#v vs %#v", got, again)
			}
		})
	}
}

func TestUndefinedMarshalsToNull(t *testing.T) {
	b, err := json.Marshal(map[string]any{"a": Undefined})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"a":null}` {
		t.Fatalf("expected {\"a\":null}, got %s", b)
	}
}

func TestCanonicalJSONStableKeyOrder(t *testing.T) {
	a, err := canonicalJSON([]byte(`{"b":2,"a":1}`))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	b, err := canonicalJSON([]byte(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical canonical forms, got %s vs %s", a, b)
	}
}
