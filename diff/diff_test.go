package diff

import (
	"strings"
	"testing"

	"github.com/mergeflow/doc-format/go-doc/ir"
)

func doc(t *testing.T, src string) *ir.Node {
	t.Helper()
	n, err := ir.FromJSON([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestUnifiedEqual(t *testing.T) {
	a := doc(t, `{"x": 1, "y": [2, 3]}`)
	b := doc(t, `{"y": [2, 3], "x": 1}`)
	// Canonical rendering makes field order irrelevant.
	if d := Unified(a, b); d != "" {
		t.Errorf("diff of equal documents:\n%s", d)
	}
}

func TestUnifiedChange(t *testing.T) {
	a := doc(t, `{"x": 1, "y": "same"}`)
	b := doc(t, `{"x": 2, "y": "same"}`)
	d := Unified(a, b)
	if !strings.Contains(d, `- `) || !strings.Contains(d, `+ `) {
		t.Errorf("diff missing change markers:\n%s", d)
	}
	if !strings.Contains(d, `"x": 1`) || !strings.Contains(d, `"x": 2`) {
		t.Errorf("diff missing changed values:\n%s", d)
	}
	if strings.Count(d, `"same"`) != 1 {
		t.Errorf("unchanged line should appear once as context:\n%s", d)
	}
}

func TestUnifiedNil(t *testing.T) {
	b := doc(t, `{"x": 1}`)
	d := Unified(nil, b)
	if !strings.Contains(d, `+ `) {
		t.Errorf("diff against nil should be all insertions:\n%s", d)
	}
}
