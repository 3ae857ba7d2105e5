package redact

import (
	"strings"
	"testing"

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

func redacted(t *testing.T, idx *schema.Index, s *schema.Schema, d *ir.Node, salt []byte) Outcome {
	t.Helper()
	res, err := validate.Validate(idx, s, d)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid() {
		t.Fatalf("document invalid: %v", res.Errors())
	}
	out, err := Redact(d, res.Outcomes(), salt)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestSha256String(t *testing.T) {
	idx, s := build(t, `
properties:
  email: {redact: sha256}
`)
	d := doc(t, `{"email": "a@b.example", "name": "n"}`)
	out := redacted(t, idx, s, d, []byte("salt"))
	// A string for a string is tape-neutral.
	if out.Kind != Modified || out.TapeDelta != 0 {
		t.Fatalf("outcome = %+v", out)
	}
	got := ir.Get(d, "email").String
	if !alreadyRedacted(got) {
		t.Errorf("email = %q, want a sha256: digest", got)
	}
	if ir.Get(d, "name").String != "n" {
		t.Errorf("unannotated member changed")
	}

	// Idempotence: a second pass leaves the digest alone.
	digest := got
	out = redacted(t, idx, s, d, []byte("salt"))
	if out.Kind != Unchanged {
		t.Errorf("second pass outcome = %+v", out)
	}
	if ir.Get(d, "email").String != digest {
		t.Errorf("digest changed on second pass")
	}
}

func TestSaltChangesDigest(t *testing.T) {
	idx, s := build(t, `redact: sha256`)
	a, b := doc(t, `"secret"`), doc(t, `"secret"`)
	redacted(t, idx, s, a, []byte("one"))
	redacted(t, idx, s, b, []byte("two"))
	if a.String == b.String {
		t.Errorf("different salts produced the same digest")
	}
}

func TestDigestNumericEquivalence(t *testing.T) {
	idx, s := build(t, `redact: sha256`)
	a, b := doc(t, `5`), doc(t, `5.0`)
	redacted(t, idx, s, a, nil)
	redacted(t, idx, s, b, nil)
	if a.String != b.String {
		t.Errorf("5 and 5.0 digest differently: %q vs %q", a.String, b.String)
	}
	c := doc(t, `5.5`)
	redacted(t, idx, s, c, nil)
	if c.String == a.String {
		t.Errorf("5.5 digests like 5")
	}
}

func TestSha256Container(t *testing.T) {
	idx, s := build(t, `
properties:
  card: {redact: sha256}
`)
	d := doc(t, `{"card": {"number": "4111", "cvc": "000"}}`)
	// card subtree is 3 tape positions, its digest is 1.
	out := redacted(t, idx, s, d, nil)
	if out.Kind != Modified || out.TapeDelta != -2 {
		t.Fatalf("outcome = %+v", out)
	}
	if got := ir.Get(d, "card"); got.Type != ir.StringType || !alreadyRedacted(got.String) {
		t.Errorf("card = %v", got)
	}
}

func TestBlock(t *testing.T) {
	idx, s := build(t, `
properties:
  ssn: {redact: block}
  rows:
    items:
      properties:
        secret: {redact: block}
`)
	d := doc(t, `{"rows": [{"keep": 1, "secret": "x"}, {"secret": "y"}], "ssn": "123"}`)
	out := redacted(t, idx, s, d, nil)
	if out.Kind != Modified || out.TapeDelta != -3 {
		t.Fatalf("outcome = %+v", out)
	}
	if ir.Get(d, "ssn") != nil {
		t.Errorf("ssn survived")
	}
	rows := ir.Get(d, "rows")
	if len(rows.Values) != 2 {
		t.Fatalf("rows = %d", len(rows.Values))
	}
	if ir.Get(rows.Values[0], "secret") != nil || ir.Get(rows.Values[1], "secret") != nil {
		t.Errorf("secret survived")
	}
	if ir.Get(rows.Values[0], "keep") == nil {
		t.Errorf("keep removed")
	}
}

func TestDigestBeforeSibling(t *testing.T) {
	// Digesting a container shrinks it; siblings after it are still
	// addressed at their original tape positions.
	idx, s := build(t, `
properties:
  card: {redact: sha256}
  ssn: {redact: sha256}
`)
	d := doc(t, `{"card": {"cvc": "000", "number": "4111"}, "ssn": "123", "z": true}`)
	out := redacted(t, idx, s, d, nil)
	if out.Kind != Modified || out.TapeDelta != -2 {
		t.Fatalf("outcome = %+v", out)
	}
	if got := ir.Get(d, "card"); !alreadyRedacted(got.String) {
		t.Errorf("card = %v", got)
	}
	if got := ir.Get(d, "ssn"); !alreadyRedacted(got.String) {
		t.Errorf("ssn = %v", got)
	}
	if got := ir.Get(d, "z"); got == nil || got.Type != ir.BoolType {
		t.Errorf("unannotated member changed: %v", got)
	}
}

func TestBlockRoot(t *testing.T) {
	idx, s := build(t, `redact: block`)
	d := doc(t, `{"a": 1, "b": [2, 3]}`)
	out := redacted(t, idx, s, d, nil)
	if out.Kind != Removed || out.Length != d.TapeLength() {
		t.Errorf("outcome = %+v, want Removed length %d", out, d.TapeLength())
	}
}

func TestConflictingStrategies(t *testing.T) {
	idx, s := build(t, `
allOf:
  - {redact: block}
  - {redact: sha256}
`)
	d := doc(t, `"v"`)
	res, err := validate.Validate(idx, s, d)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Redact(d, res.Outcomes(), nil); err == nil {
		t.Fatal("conflicting strategies should error")
	} else if !strings.Contains(err.Error(), "conflicting") {
		t.Errorf("err = %v", err)
	}
}

func TestAlreadyRedacted(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"sha256:" + strings.Repeat("a", 64), true},
		{"sha256:" + strings.Repeat("0", 64), true},
		{"sha256:" + strings.Repeat("A", 64), true},
		{"sha256:" + strings.Repeat("aB", 32), true},
		{"sha256:" + strings.Repeat("g", 64), false},
		{"sha256:" + strings.Repeat("a", 63), false},
		{"sha255:" + strings.Repeat("a", 64), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := alreadyRedacted(tt.s); got != tt.want {
			t.Errorf("alreadyRedacted(%q) = %v", tt.s, got)
		}
	}
}
