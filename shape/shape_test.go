package shape

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/mergeflow/doc-format/go-doc/ir"
	"github.com/mergeflow/doc-format/go-doc/schema"
)

func infer(t *testing.T, src string) *Shape {
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
	return Infer(s, b.MustBuild())
}

func TestExistence(t *testing.T) {
	sh := infer(t, `
type: object
required: [x]
properties:
  x: {type: integer}
`)
	got, ex := sh.Locate(ir.MustPointer("/x"))
	if ex != Must {
		t.Errorf("/x exists = %v, want must", ex)
	}
	if got.Types != schema.IntegerSet {
		t.Errorf("/x types = %v, want integer", got.Types)
	}
	// Undeclared members fall to the default open additionalProperties.
	got, ex = sh.Locate(ir.MustPointer("/y"))
	if ex != May {
		t.Errorf("/y exists = %v, want may", ex)
	}
	if got.Types != schema.AnySet {
		t.Errorf("/y types = %v, want any", got.Types)
	}
}

func TestClosedObject(t *testing.T) {
	sh := infer(t, `
type: object
properties:
  a: {type: string}
additionalProperties: false
`)
	if _, ex := sh.Locate(ir.MustPointer("/b")); ex != Cannot {
		t.Errorf("/b exists = %v, want cannot", ex)
	}
	if _, ex := sh.Locate(ir.MustPointer("/a/deep")); ex != Cannot {
		t.Errorf("/a/deep exists = %v, want cannot", ex)
	}
}

func TestPatternAndAdditional(t *testing.T) {
	sh := infer(t, `
type: object
patternProperties:
  "^x-": {type: string}
additionalProperties: {type: integer}
`)
	got, ex := sh.Locate(ir.MustPointer("/x-trace"))
	if ex != Implicit || got.Types != schema.StringSet {
		t.Errorf("/x-trace = %v %v", got.Types, ex)
	}
	got, ex = sh.Locate(ir.MustPointer("/other"))
	if ex != May || got.Types != schema.IntegerSet {
		t.Errorf("/other = %v %v", got.Types, ex)
	}
}

func TestPathComposition(t *testing.T) {
	sh := infer(t, `
type: object
required: [a]
properties:
  a:
    type: object
    properties:
      b: {type: boolean}
`)
	if _, ex := sh.Locate(ir.MustPointer("/a/b")); ex != May {
		t.Errorf("/a/b exists = %v, want may", ex)
	}
	if _, ex := sh.Locate(ir.MustPointer("/a")); ex != Must {
		t.Errorf("/a exists = %v, want must", ex)
	}
}

func TestBooleanStructure(t *testing.T) {
	// anyOf widens, allOf intersects.
	sh := infer(t, `
anyOf:
  - {type: string}
  - {type: integer}
`)
	if sh.Types != schema.StringSet|schema.IntegerSet {
		t.Errorf("anyOf types = %v", sh.Types)
	}

	sh = infer(t, `
allOf:
  - {type: [string, integer]}
  - {type: string}
`)
	if sh.Types != schema.StringSet {
		t.Errorf("allOf types = %v", sh.Types)
	}

	sh = infer(t, `
allOf:
  - {required: [a], properties: {a: {type: number}}}
  - {properties: {a: {type: integer}, b: {type: string}}}
`)
	got, ex := sh.Locate(ir.MustPointer("/a"))
	if ex != Must || got.Types != schema.IntegerSet {
		t.Errorf("/a = %v %v", got.Types, ex)
	}
	if _, ex := sh.Locate(ir.MustPointer("/b")); ex != May {
		t.Errorf("/b exists = %v", ex)
	}
}

func TestEnumDomain(t *testing.T) {
	sh := infer(t, `
anyOf:
  - {enum: [1, 2]}
  - {enum: [2, 3]}
`)
	if len(sh.Enum) != 3 {
		t.Errorf("widened enum = %d values", len(sh.Enum))
	}
	sh = infer(t, `
allOf:
  - {enum: [1, 2]}
  - {enum: [2, 3]}
`)
	if len(sh.Enum) != 1 || ir.Compare(sh.Enum[0], ir.FromInt(2)) != 0 {
		t.Errorf("intersected enum = %v", sh.Enum)
	}
}

func TestRecursiveSchema(t *testing.T) {
	sh := infer(t, `
type: object
properties:
  value: {type: string}
  next: {$ref: "#"}
`)
	// Must terminate, and the cycle resolves to the same shape.
	got, ex := sh.Locate(ir.MustPointer("/next/next/value"))
	if ex != May {
		t.Errorf("/next/next/value exists = %v", ex)
	}
	if got.Types != schema.StringSet {
		t.Errorf("/next/next/value types = %v", got.Types)
	}
	locs := sh.Locations()
	if len(locs) == 0 {
		t.Fatal("no locations")
	}
}

func TestReduceAnnotationOnShape(t *testing.T) {
	sh := infer(t, `
properties:
  n: {reduce: sum, type: integer}
`)
	got, _ := sh.Locate(ir.MustPointer("/n"))
	if got.Reduce == nil || got.Reduce.Kind != schema.Sum {
		t.Errorf("reduce annotation lost: %+v", got.Reduce)
	}
}

func TestLocationsTable(t *testing.T) {
	sh := infer(t, `
type: object
required: [id]
properties:
  id: {type: string}
  count: {type: integer}
  tags:
    type: array
    items: {type: string}
  meta:
    type: object
    patternProperties:
      "^x-": {type: string}
    additionalProperties: false
additionalProperties: {type: string}
`)
	g := goldie.New(t)
	g.Assert(t, "locations", []byte(Table(sh.Locations())))
}
