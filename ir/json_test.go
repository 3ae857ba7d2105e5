package ir

import (
	"testing"
)

func TestFromJSONToJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"null", `null`, `null`},
		{"bool", `true`, `true`},
		{"int", `42`, `42`},
		{"float", `1.5`, `1.5`},
		{"bignum", `18446744073709551616`, `18446744073709551616`},
		{"string", `"hi\n"`, `"hi\n"`},
		{"array", `[1,[2],{}]`, `[1,[2],{}]`},
		{"object sorts fields", `{"b":1,"a":2}`, `{"a":2,"b":1}`},
		{"nested", `{"z":{"y":[null,false]},"a":"x"}`, `{"a":"x","z":{"y":[null,false]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := FromJSON([]byte(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			got, err := ToJSON(node)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.out {
				t.Errorf("got %s, want %s", got, tt.out)
			}
		})
	}
}

func TestFromJSONErrors(t *testing.T) {
	for _, in := range []string{``, `{`, `[1,]`, `1 2`} {
		if _, err := FromJSON([]byte(in)); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestNumberForms(t *testing.T) {
	n, err := FromJSON([]byte(`9007199254740993`))
	if err != nil {
		t.Fatal(err)
	}
	if n.Int64 == nil || *n.Int64 != 9007199254740993 {
		t.Errorf("large int lost precision: %+v", n)
	}
	n, err = FromJSON([]byte(`1e400`))
	if err != nil {
		t.Fatal(err)
	}
	if n.Number == "" {
		t.Errorf("overflow float should keep text form: %+v", n)
	}
}

func TestNumberTextVariants(t *testing.T) {
	// Textual variants of a float-representable value parse as the
	// float, so value-based equality holds downstream.
	for _, in := range []string{`5.0`, `1e3`, `0.10`} {
		n, err := FromJSON([]byte(in))
		if err != nil {
			t.Fatal(err)
		}
		if n.Float64 == nil {
			t.Errorf("%s should parse as a float, got %+v", in, n)
		}
	}
	five, _ := FromJSON([]byte(`5`))
	fivePointOh, _ := FromJSON([]byte(`5.0`))
	if five.Hash() != fivePointOh.Hash() {
		t.Errorf("5 and 5.0 should hash identically")
	}
	// A value float64 cannot hold exactly stays textual.
	n, err := FromJSON([]byte(`9007199254740993.0`))
	if err != nil {
		t.Fatal(err)
	}
	if n.Number == "" {
		t.Errorf("inexact value should keep text form: %+v", n)
	}
}

func TestIsIntDecimalForms(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`9007199254740993.00`, true},
		{`0.1000000000000000055`, false},
		{`1e400`, true},
	}
	for _, tt := range tests {
		n, err := FromJSON([]byte(tt.in))
		if err != nil {
			t.Fatal(err)
		}
		if got := n.IsInt(); got != tt.want {
			t.Errorf("IsInt(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTapeLength(t *testing.T) {
	doc, err := FromJSON([]byte(`{"a": [1, 2], "b": {"c": null}}`))
	if err != nil {
		t.Fatal(err)
	}
	// root + a + 1 + 2 + b + c
	if got := doc.TapeLength(); got != 6 {
		t.Errorf("TapeLength() = %d, want 6", got)
	}
	if got := FromInt(3).TapeLength(); got != 1 {
		t.Errorf("scalar TapeLength() = %d, want 1", got)
	}
}
