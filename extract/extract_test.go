package extract

import (
	"testing"
	"time"

	"github.com/google/uuid"

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

func TestExtractDefault(t *testing.T) {
	d := doc(t, `{"a": {"b": 7}}`)
	e := Extractor{Ptr: ir.MustPointer("/a/b")}
	if got := e.Extract(d); ir.Compare(got, ir.FromInt(7)) != 0 {
		t.Errorf("got %v", got)
	}
	e = Extractor{Ptr: ir.MustPointer("/a/missing"), Default: ir.FromString("dflt")}
	if got := e.Extract(d); got.String != "dflt" {
		t.Errorf("got %v", got)
	}
	e = Extractor{Ptr: ir.MustPointer("/a/missing")}
	if got := e.Extract(d); got.Type != ir.NullType {
		t.Errorf("got %v", got)
	}
}

func TestTuple(t *testing.T) {
	d := doc(t, `{"id": "x", "seq": 3}`)
	key := Tuple([]ir.Pointer{ir.MustPointer("/id"), ir.MustPointer("/seq"), ir.MustPointer("/no")}, d)
	want := doc(t, `["x", 3, null]`)
	if ir.Compare(key, want) != 0 {
		t.Errorf("key = %v, want %v", key, want)
	}
	// Tuples order by component precedence.
	other := Tuple([]ir.Pointer{ir.MustPointer("/id"), ir.MustPointer("/seq")}, doc(t, `{"id": "x", "seq": 9}`))
	if ir.Compare(Tuple([]ir.Pointer{ir.MustPointer("/id"), ir.MustPointer("/seq")}, d), other) >= 0 {
		t.Errorf("seq 3 should order before seq 9")
	}
}

func TestUUIDTimestamp(t *testing.T) {
	u, err := uuid.NewUUID() // version 1
	if err != nil {
		t.Fatal(err)
	}
	got, err := UUIDTimestamp(ir.FromString(u.String()))
	if err != nil {
		t.Fatal(err)
	}
	if d := time.Since(got); d < 0 || d > time.Minute {
		t.Errorf("timestamp %v not near now", got)
	}

	if _, err := UUIDTimestamp(ir.FromString(uuid.NewString())); err == nil {
		t.Error("v4 UUID should be rejected")
	}
	if _, err := UUIDTimestamp(ir.FromInt(3)); err == nil {
		t.Error("non-string should be rejected")
	}
	if _, err := UUIDTimestamp(ir.FromString("nope")); err == nil {
		t.Error("malformed UUID should be rejected")
	}
}
