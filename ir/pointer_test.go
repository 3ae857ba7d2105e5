package ir

import (
	"testing"
)

func TestParsePointerRoundTrip(t *testing.T) {
	tests := []string{
		"",
		"/a",
		"/a/b/0",
		"/a~0b/c~1d",
		"/-",
		"/*",
		"/0/10/x",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			p, err := ParsePointer(s)
			if err != nil {
				t.Fatal(err)
			}
			if got := p.String(); got != s {
				t.Errorf("round trip %q -> %q", s, got)
			}
		})
	}
}

func TestParsePointerErrors(t *testing.T) {
	if _, err := ParsePointer("a/b"); err == nil {
		t.Errorf("expected error for missing leading slash")
	}
}

func TestPointerQuery(t *testing.T) {
	doc, err := FromJSON([]byte(`{"a": {"b": [1, 2, {"c": true}]}, "0": "zero"}`))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		ptr  string
		want *Node
	}{
		{"", doc},
		{"/a/b/0", FromInt(1)},
		{"/a/b/2/c", FromBool(true)},
		{"/0", FromString("zero")}, // index token addressing an object
		{"/a/x", nil},
		{"/a/b/9", nil},
		{"/a/b/0/deep", nil},
	}
	for _, tt := range tests {
		t.Run(tt.ptr, func(t *testing.T) {
			got := MustPointer(tt.ptr).Query(doc)
			if tt.want == nil {
				if got != nil {
					t.Errorf("expected nil, got %v", got.Type)
				}
				return
			}
			if got == nil || Compare(got, tt.want) != 0 {
				t.Errorf("Query(%q) mismatch", tt.ptr)
			}
		})
	}
}

func TestPointerCreate(t *testing.T) {
	doc := Null()
	v, err := MustPointer("/a/b/0").Create(doc)
	if err != nil {
		t.Fatal(err)
	}
	*v = *FromInt(7)
	got, err := ToJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":{"b":[7]}}` {
		t.Errorf("got %s", got)
	}

	// Index extending by more than one fails.
	if _, err := MustPointer("/a/b/5").Create(doc); err == nil {
		t.Errorf("expected error extending array past end")
	}
	// Existing scalar blocks the path.
	if _, err := MustPointer("/a/b/0/x").Create(doc); err == nil {
		t.Errorf("expected error creating under a number")
	}
}
