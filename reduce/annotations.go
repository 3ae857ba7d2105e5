package reduce

import (
	"github.com/mergeflow/doc-format/go-doc/schema"
	"github.com/mergeflow/doc-format/go-doc/validate"
)

// Annotations indexes the reduce strategies of one validation walk by
// Span.Begin, so the reducer can resolve the strategy in effect at a
// tape position in O(1) while it zips two trees.
type Annotations struct {
	byBegin map[int]*schema.Strategy
}

// AnnotationsFromOutcomes indexes reduce outcomes. When overlapping
// schema branches annotated one span, the first outcome wins; the
// validator emits them in declaration order.
func AnnotationsFromOutcomes(outcomes []validate.Outcome) *Annotations {
	a := &Annotations{byBegin: make(map[int]*schema.Strategy)}
	for _, o := range outcomes {
		if o.Reduce == nil {
			continue
		}
		if _, ok := a.byBegin[o.Span.Begin]; !ok {
			a.byBegin[o.Span.Begin] = o.Reduce
		}
	}
	return a
}

// At returns the strategy annotated at a tape position, or nil.
func (a *Annotations) At(begin int) *schema.Strategy {
	if a == nil {
		return nil
	}
	return a.byBegin[begin]
}
