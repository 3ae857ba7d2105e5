package reduce

import (
	"errors"
	"fmt"
	"math"
	"testing"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/go-cmp/cmp"

	"github.com/mergeflow/doc-format/go-doc/ir"
	"github.com/mergeflow/doc-format/go-doc/schema"
	"github.com/mergeflow/doc-format/go-doc/validate"
)

func build(t *testing.T, src string) (*schema.Index, *schema.Schema) {
	t.Helper()
	n, err := schema.ParseYAML([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	s, err := schema.Build("https://test/s", n)
	if err != nil {
		t.Fatal(err)
	}
	b := schema.NewIndexBuilder()
	if err := b.Add(s); err != nil {
		t.Fatal(err)
	}
	return b.MustBuild(), s
}

func doc(t *testing.T, src string) *ir.Node {
	t.Helper()
	n, err := ir.FromJSON([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// annotate validates rhs and indexes its reduce annotations.
func annotate(t *testing.T, idx *schema.Index, s *schema.Schema, rhs *ir.Node) *Annotations {
	t.Helper()
	res, err := validate.Validate(idx, s, rhs)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid() {
		t.Fatalf("document invalid: %v", res.Errors())
	}
	return AnnotationsFromOutcomes(res.Outcomes())
}

// fold reduces the docs left to right, the last step full when full is
// set, and returns the result as canonical JSON.
func fold(t *testing.T, idx *schema.Index, s *schema.Schema, full bool, docs ...string) string {
	t.Helper()
	var acc *ir.Node
	for i, src := range docs {
		rhs := doc(t, src)
		ann := annotate(t, idx, s, rhs)
		out, deleted, err := Reduce(acc, rhs, ann, full && i == len(docs)-1)
		if err != nil {
			t.Fatalf("reduce step %d: %v", i, err)
		}
		if deleted {
			t.Fatalf("reduce step %d: unexpected deletion", i)
		}
		acc = out
	}
	js, err := ir.ToJSON(acc)
	if err != nil {
		t.Fatal(err)
	}
	return string(js)
}

func TestMergeWithSum(t *testing.T) {
	idx, s := build(t, `
reduce: merge
properties:
  b: {reduce: sum}
`)
	got := fold(t, idx, s, true,
		`{"id": 1, "b": 3}`,
		`{"id": 1, "a": "A", "b": 7}`,
	)
	want := `{"a":"A","b":10,"id":1}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestLastWriteWins(t *testing.T) {
	idx, s := build(t, `reduce: lastWriteWins`)
	got := fold(t, idx, s, false, `{"v": 1}`, `{"v": 2}`, `"other"`)
	if got != `"other"` {
		t.Errorf("got %s", got)
	}

	idx, s = build(t, `reduce: {strategy: lastWriteWins, associative: false}`)
	rhs := doc(t, `2`)
	ann := annotate(t, idx, s, rhs)
	_, _, err := Reduce(doc(t, `1`), rhs, ann, false)
	if !IsNotAssociative(err) {
		t.Errorf("partial non-associative reduce: err = %v", err)
	}
	// Full reductions see the operands in order and may fold anyway.
	out, _, err := Reduce(doc(t, `1`), rhs, ann, true)
	if err != nil {
		t.Fatal(err)
	}
	if ir.Compare(out, rhs) != 0 {
		t.Errorf("full reduce should take the incoming value")
	}
	// Identical operands fold without an order.
	if _, _, err := Reduce(doc(t, `2`), rhs, ann, false); err != nil {
		t.Errorf("equal operands: %v", err)
	}
}

func TestFirstWriteWins(t *testing.T) {
	idx, s := build(t, `reduce: firstWriteWins`)
	got := fold(t, idx, s, true, `"created"`, `"overwritten"`, `"again"`)
	if got != `"created"` {
		t.Errorf("got %s", got)
	}
}

func TestExtremum(t *testing.T) {
	idx, s := build(t, `reduce: minimize`)
	if got := fold(t, idx, s, true, `5`, `3`, `9`); got != `3` {
		t.Errorf("minimize: got %s", got)
	}
	idx, s = build(t, `reduce: maximize`)
	if got := fold(t, idx, s, true, `5`, `3`, `9`); got != `9` {
		t.Errorf("maximize: got %s", got)
	}
}

func TestExtremumKeyedTie(t *testing.T) {
	idx, s := build(t, `reduce: {strategy: maximize, key: ["/seq"]}`)
	// Equal keys describe the same observation: fields union, left
	// scalars win.
	got := fold(t, idx, s, true,
		`{"seq": 4, "x": 1}`,
		`{"seq": 4, "x": 9, "y": 2}`,
	)
	want := `{"seq":4,"x":1,"y":2}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	// A larger key replaces wholesale.
	got = fold(t, idx, s, true, `{"seq": 4, "x": 1}`, `{"seq": 5, "y": 2}`)
	if got != `{"seq":5,"y":2}` {
		t.Errorf("got %s", got)
	}
}

func TestSum(t *testing.T) {
	idx, s := build(t, `reduce: sum`)
	tests := []struct {
		docs []string
		want string
	}{
		{[]string{`1`, `2`, `3`}, `6`},
		{[]string{`1.5`, `2.25`}, `3.75`},
		{[]string{`1`, `2.5`}, `3.5`},
		{[]string{fmt.Sprint(math.MaxInt64), `1`}, `9223372036854775808`},
		{[]string{`10000000000000000000000000000`, `1`}, `10000000000000000000000000001`},
		{[]string{`9223372036854775808`, `-9`}, `9223372036854775799`},
	}
	for _, tt := range tests {
		if got := fold(t, idx, s, true, tt.docs...); got != tt.want {
			t.Errorf("sum %v: got %s, want %s", tt.docs, got, tt.want)
		}
	}
	rhs := doc(t, fmt.Sprint(math.MaxFloat64))
	ann := annotate(t, idx, s, rhs)
	_, _, err := Reduce(rhs.Clone(), rhs, ann, false)
	var re *Error
	if !errors.As(err, &re) || re.Kind != SumNumericOverflow {
		t.Errorf("float overflow: err = %v", err)
	}
}

func TestAppend(t *testing.T) {
	idx, s := build(t, `reduce: append`)
	got := fold(t, idx, s, true, `[1]`, `[2, 3]`, `[]`, `[4]`)
	if got != `[1,2,3,4]` {
		t.Errorf("got %s", got)
	}
}

func TestAppendNullReset(t *testing.T) {
	idx, s := build(t, `
reduce: merge
properties:
  log: {reduce: append}
`)
	// A null accumulator at an append location stays null.
	lhs := doc(t, `{"log": null}`)
	rhs := doc(t, `{"log": ["x"]}`)
	ann := annotate(t, idx, s, rhs)
	out, _, err := Reduce(lhs, rhs, ann, false)
	if err != nil {
		t.Fatal(err)
	}
	js, _ := ir.ToJSON(out)
	if string(js) != `{"log":null}` {
		t.Errorf("got %s", js)
	}
}

func TestMergeDeletion(t *testing.T) {
	idx, s := build(t, `
reduce: merge
properties:
  gone: {reduce: {strategy: lastWriteWins, delete: true}}
`)
	// Partial reductions carry the tombstone.
	got := fold(t, idx, s, false, `{"keep": 1, "gone": 2}`, `{"gone": 3}`)
	if got != `{"gone":3,"keep":1}` {
		t.Errorf("partial: got %s", got)
	}
	// Full reductions prune it.
	got = fold(t, idx, s, true, `{"keep": 1, "gone": 2}`, `{"gone": 3}`)
	if got != `{"keep":1}` {
		t.Errorf("full: got %s", got)
	}
}

func TestMergeArraysPositional(t *testing.T) {
	idx, s := build(t, `
reduce: merge
items: {reduce: sum}
`)
	got := fold(t, idx, s, true, `[1, 2, 3]`, `[10, 20]`)
	if got != `[11,22,3]` {
		t.Errorf("got %s", got)
	}
}

func TestMergeArraysKeyed(t *testing.T) {
	idx, s := build(t, `
reduce: {strategy: merge, key: ["/id"]}
items:
  reduce: merge
  properties:
    n: {reduce: sum}
`)
	got := fold(t, idx, s, true,
		`[{"id": "a", "n": 1}, {"id": "c", "n": 1}]`,
		`[{"id": "a", "n": 2}, {"id": "b", "n": 5}]`,
	)
	want := `[{"id":"a","n":3},{"id":"b","n":5},{"id":"c","n":1}]`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMergeTypeSwitch(t *testing.T) {
	idx, s := build(t, `reduce: merge`)
	rhs := doc(t, `{"a": 1}`)
	ann := annotate(t, idx, s, rhs)
	if _, _, err := Reduce(doc(t, `[1]`), rhs, ann, false); !IsNotAssociative(err) {
		t.Errorf("partial type switch: err = %v", err)
	}
	// Full reduction restarts from the incoming document.
	out, _, err := Reduce(doc(t, `[1]`), rhs, ann, true)
	if err != nil {
		t.Fatal(err)
	}
	js, _ := ir.ToJSON(out)
	if string(js) != `{"a":1}` {
		t.Errorf("full type switch: got %s", js)
	}
}

func TestSetObjectForm(t *testing.T) {
	idx, s := build(t, `reduce: set`)
	// Additions accumulate and deep-merge.
	got := fold(t, idx, s, false,
		`{"add": {"a": {"v": 1}}}`,
		`{"add": {"b": {"v": 2}}}`,
		`{"add": {"a": {"w": 3}}}`,
	)
	want := `{"add":{"a":{"v":1,"w":3},"b":{"v":2}}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	// remove discards matching additions and is carried in partial
	// reductions.
	got = fold(t, idx, s, false,
		`{"add": {"a": {}, "b": {}}}`,
		`{"remove": {"a": {}}}`,
	)
	if got != `{"add":{"b":{}},"remove":{"a":{}}}` {
		t.Errorf("remove partial: got %s", got)
	}
	// A full reduction prunes the bookkeeping.
	got = fold(t, idx, s, true,
		`{"add": {"a": {}, "b": {}}}`,
		`{"remove": {"a": {}}}`,
	)
	if got != `{"add":{"b":{}}}` {
		t.Errorf("remove full: got %s", got)
	}

	// intersect keeps only named additions.
	got = fold(t, idx, s, true,
		`{"add": {"a": {}, "b": {}, "c": {}}}`,
		`{"intersect": {"b": {}, "c": {}, "z": {}}}`,
	)
	if got != `{"add":{"b":{},"c":{}}}` {
		t.Errorf("intersect: got %s", got)
	}
}

func TestSetArrayForm(t *testing.T) {
	idx, s := build(t, `reduce: {strategy: set, key: ["/id"]}`)
	got := fold(t, idx, s, true,
		`{"add": [{"id": "a", "v": 1}, {"id": "b", "v": 2}]}`,
		`{"remove": [{"id": "a"}]}`,
		`{"add": [{"id": "b", "w": 9}, {"id": "c", "v": 3}]}`,
	)
	want := `{"add":[{"id":"b","v":2,"w":9},{"id":"c","v":3}]}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSetMalformed(t *testing.T) {
	idx, s := build(t, `reduce: set`)
	for _, bad := range []string{
		`{"add": {}, "other": {}}`,
		`{"intersect": {}, "remove": {}}`,
		`{"add": {}, "remove": []}`,
		`{"add": 3}`,
	} {
		rhs := doc(t, bad)
		ann := annotate(t, idx, s, rhs)
		if _, _, err := Reduce(nil, rhs, ann, false); err == nil {
			t.Errorf("%s should not reduce", bad)
		}
	}
}

// Partial reductions of associative strategies must fold the same
// regardless of grouping.
func TestAssociativity(t *testing.T) {
	idx, s := build(t, `
reduce: merge
properties:
  n: {reduce: sum}
  hi: {reduce: maximize}
  tags: {reduce: append}
  first: {reduce: firstWriteWins}
`)
	docs := []string{
		`{"n": 1, "hi": 4, "tags": ["a"], "first": "one"}`,
		`{"n": 2, "hi": 9, "tags": ["b"], "first": "two"}`,
		`{"n": 3, "hi": 2, "tags": ["c"], "first": "three"}`,
	}
	step := func(lhs *ir.Node, src string) *ir.Node {
		rhs := doc(t, src)
		ann := annotate(t, idx, s, rhs)
		out, _, err := Reduce(lhs, rhs, ann, false)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
	left := step(step(doc(t, docs[0]), docs[1]), docs[2])

	rightInner := step(doc(t, docs[1]), docs[2])
	// Fold docs[0] into the pre-reduced right half. The right half is a
	// reduction result, so re-validate it for its annotations.
	res, err := validate.Validate(idx, s, rightInner)
	if err != nil {
		t.Fatal(err)
	}
	right, _, err := Reduce(doc(t, docs[0]), rightInner, AnnotationsFromOutcomes(res.Outcomes()), false)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(mustJSON(t, left), mustJSON(t, right)); diff != "" {
		t.Errorf("grouping changed the result:\n%s", diff)
	}
}

func mustJSON(t *testing.T, n *ir.Node) string {
	t.Helper()
	js, err := ir.ToJSON(n)
	if err != nil {
		t.Fatal(err)
	}
	return string(js)
}

// The default object merge over scalar members agrees with RFC 7386
// merge patch when no deletions or arrays are involved.
func TestMergeMatchesMergePatch(t *testing.T) {
	idx, s := build(t, `reduce: merge`)
	tests := []struct{ into, in string }{
		{`{"a": 1, "b": {"c": 2}}`, `{"b": {"c": 3, "d": 4}}`},
		{`{"x": "old"}`, `{"x": "new", "y": true}`},
		{`{}`, `{"deep": {"deeper": {"v": 1}}}`},
	}
	for _, tt := range tests {
		got := fold(t, idx, s, true, tt.into, tt.in)
		patched, err := jsonpatch.MergePatch([]byte(tt.into), []byte(tt.in))
		if err != nil {
			t.Fatal(err)
		}
		want := mustJSON(t, doc(t, string(patched)))
		if got != want {
			t.Errorf("merge(%s, %s) = %s, want %s", tt.into, tt.in, got, want)
		}
	}
}
