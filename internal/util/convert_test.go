package util

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInt(t *testing.T) {
	cases := []struct {
		name   string
		input  any
		want   int
		wantOK bool
	}{
		{name: "float", input: float64(2500), want: 2500, wantOK: true},
		{name: "int", input: 7, want: 7, wantOK: true},
		{name: "number", input: json.Number("2100"), want: 2100, wantOK: true},
		{name: "numeric string", input: " 4 ", want: 4, wantOK: true},
		{name: "nil", input: nil, wantOK: false},
		{name: "word", input: "?", wantOK: false},
		{name: "map", input: map[string]any{}, wantOK: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Int(tc.input)
			if ok != tc.wantOK || (ok && got != tc.want) {
				t.Fatalf("got (%d,%v) want (%d,%v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
	if IntOr(nil, -1) != -1 {
		t.Fatal("IntOr fallback")
	}
}

func TestString(t *testing.T) {
	cases := map[string]struct {
		input any
		want  string
	}{
		"passcode": {input: float64(46986414), want: "46986414"},
		"text":     {input: "DARK", want: "DARK"},
		"nil":      {input: nil, want: ""},
		"fraction": {input: 1.5, want: "1.5"},
		"slice":    {input: []any{"a"}, want: ""},
	}
	for name, tc := range cases {
		if got := String(tc.input); got != tc.want {
			t.Fatalf("%s: got %q want %q", name, got, tc.want)
		}
	}
}

func TestStringList(t *testing.T) {
	got, ok := StringList([]any{"Top", " Bottom-Left ", "", nil})
	if !ok {
		t.Fatal("array not accepted")
	}
	if diff := cmp.Diff([]string{"Top", "Bottom-Left"}, got); diff != "" {
		t.Fatalf("array (-want +got):\n%s", diff)
	}

	got, ok = StringList("Top, Right,,Left")
	if !ok {
		t.Fatal("string not accepted")
	}
	if diff := cmp.Diff([]string{"Top", "Right", "Left"}, got); diff != "" {
		t.Fatalf("string (-want +got):\n%s", diff)
	}

	if _, ok := StringList(42.0); ok {
		t.Fatal("number should not be a list")
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("") != nil {
		t.Fatal("empty string should be nil")
	}
	got := StringPtr("46986414")
	if got == nil || *got != "46986414" {
		t.Fatalf("got %v", got)
	}
}
