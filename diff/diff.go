// Package diff renders line-oriented differences between documents.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/mergeflow/doc-format/go-doc/ir"
)

// Unified renders a line diff between the canonical pretty-printed
// forms of a and b. Identical documents produce the empty string.
func Unified(a, b *ir.Node) string {
	at := render(a)
	bt := render(b)
	if at == bt {
		return ""
	}
	dmp := diffmatchpatch.New()
	ra, rb, lines := dmp.DiffLinesToRunes(at, bt)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(ra, rb, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range splitLines(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func render(n *ir.Node) string {
	if n == nil {
		return ""
	}
	js, err := ir.ToJSONIndent(n)
	if err != nil {
		return err.Error()
	}
	return string(js)
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
