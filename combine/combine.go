// Package combine folds unordered streams of documents into one
// fully-reduced document per key.
//
// Updates arrive in any order. The Combiner groups them by a composite
// key extracted from each document, opportunistically folds
// associative groups as they grow, and defers anything non-associative
// to the strictly ordered reduction performed by Drain. A "front"
// update is a previously fully-reduced base value: it sorts ahead of
// ordinary updates of its key so the final fold starts from it.
package combine

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mergeflow/doc-format/go-doc/debug"
	"github.com/mergeflow/doc-format/go-doc/extract"
	"github.com/mergeflow/doc-format/go-doc/ir"
	"github.com/mergeflow/doc-format/go-doc/reduce"
	"github.com/mergeflow/doc-format/go-doc/schema"
	"github.com/mergeflow/doc-format/go-doc/validate"
)

// Config configures a Combiner. Either Schema or SchemaURI must be
// set; SchemaURI is resolved against Index once at construction.
type Config struct {
	Index     *schema.Index
	Schema    *schema.Schema
	SchemaURI string
	// Key is the composite grouping key, a tuple of pointers into each
	// document.
	Key    []ir.Pointer
	Logger *zap.Logger
}

// A Combiner accumulates keyed documents and reduces them per their
// schema's strategies. It is not safe for concurrent use; each stream
// owns its own Combiner.
type Combiner struct {
	cfg    Config
	schema *schema.Schema
	log    *zap.Logger

	queued []*entry
	sorted []*entry
}

type entry struct {
	key   *ir.Node
	doc   *ir.Node
	ann   *reduce.Annotations
	front bool
	// buffered marks an entry that refused an out-of-order fold; it
	// waits for Drain's ordered pass.
	buffered bool
}

// New builds a Combiner from cfg.
func New(cfg Config) (*Combiner, error) {
	if cfg.Index == nil {
		return nil, fmt.Errorf("combine: config requires an Index")
	}
	s := cfg.Schema
	if s == nil {
		var err error
		s, err = cfg.Index.MustFetch(cfg.SchemaURI)
		if err != nil {
			return nil, fmt.Errorf("combine: %w", err)
		}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Combiner{cfg: cfg, schema: s, log: log}, nil
}

// Add stages one update. front marks doc as a fully-reduced base
// value for its key. The document is validated against the combiner's
// schema; invalid documents are rejected.
func (c *Combiner) Add(doc *ir.Node, front bool) error {
	res, err := validate.Validate(c.cfg.Index, c.schema, doc)
	if err != nil {
		return fmt.Errorf("combine: %w", err)
	}
	if !res.Valid() {
		return fmt.Errorf("combine: document invalid: %v", res.Errors())
	}
	e := &entry{
		key:   extract.Tuple(c.cfg.Key, doc),
		doc:   doc,
		ann:   reduce.AnnotationsFromOutcomes(res.Outcomes()),
		front: front,
	}
	c.queued = append(c.queued, e)
	if len(c.queued) >= max(32, len(c.sorted)) {
		c.compact()
	}
	return nil
}

// compact merges the queue into the sorted list and folds what can be
// folded out of order.
func (c *Combiner) compact() {
	if len(c.queued) == 0 {
		return
	}
	all := append(c.sorted, c.queued...)
	c.queued = nil
	// Stable by (key, front first): equal keys keep arrival order, so
	// the ordered Drain fold sees older queued updates first.
	sort.SliceStable(all, func(i, j int) bool {
		if cmp := ir.Compare(all[i].key, all[j].key); cmp != 0 {
			return cmp < 0
		}
		return all[i].front && !all[j].front
	})

	out := all[:0]
	for _, e := range all {
		if len(out) == 0 {
			out = append(out, e)
			continue
		}
		prev := out[len(out)-1]
		if ir.Compare(prev.key, e.key) != 0 {
			out = append(out, e)
			continue
		}
		// The leftmost entry of each group is held back unfolded:
		// Drain's full reduction must start from the group's true
		// base.
		prevLeftmost := len(out) == 1 || ir.Compare(out[len(out)-2].key, prev.key) != 0
		if prevLeftmost {
			out = append(out, e)
			continue
		}
		merged, _, err := reduce.Reduce(prev.doc, e.doc, e.ann, false)
		if err != nil {
			if !reduce.IsNotAssociative(err) {
				c.log.Warn("combine: deferring entry to ordered drain",
					zap.String("key", keyString(e.key)), zap.Error(err))
			}
			e.buffered = true
			out = append(out, e)
			continue
		}
		// The fold changed the document's shape, so the annotations it
		// arrived with address stale tape positions. Re-validate before
		// the merged result can be reduced as a right-hand side.
		ann, ok := c.annotate(merged)
		if !ok {
			e.buffered = true
			out = append(out, e)
			continue
		}
		prev.doc = merged
		prev.ann = ann
	}
	c.sorted = out
	if debug.Combine() {
		debug.Logf("combine: compacted to %d entries", len(c.sorted))
	}
}

// annotate validates doc and returns its reduce annotations. A partial
// fold can leave bookkeeping the schema rejects; the caller keeps the
// operands separate in that case.
func (c *Combiner) annotate(doc *ir.Node) (*reduce.Annotations, bool) {
	res, err := validate.Validate(c.cfg.Index, c.schema, doc)
	if err != nil || !res.Valid() {
		return nil, false
	}
	return reduce.AnnotationsFromOutcomes(res.Outcomes()), true
}

// Drain reduces each key's entries in strict order and calls fn once per
// key with the final document. deleted reports a tombstone result; the
// caller prunes rather than persists it. The combiner is empty after
// Drain returns, whatever the outcome; per-key errors are collected
// and do not disturb other keys.
func (c *Combiner) Drain(fn func(key, doc *ir.Node, deleted bool) error) error {
	c.compact()
	entries := c.sorted
	c.sorted = nil

	var errs error
	for i := 0; i < len(entries); {
		j := i
		for j < len(entries) && ir.Compare(entries[i].key, entries[j].key) == 0 {
			j++
		}
		var (
			acc     *ir.Node
			deleted bool
			err     error
		)
		for _, e := range entries[i:j] {
			acc, deleted, err = reduce.Reduce(acc, e.doc, e.ann, true)
			if err != nil {
				break
			}
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("combine: key %s: %w", keyString(entries[i].key), err))
		} else if err := fn(entries[i].key, acc, deleted); err != nil {
			errs = multierr.Append(errs, err)
		}
		i = j
	}
	return errs
}

// Len reports how many entries are staged.
func (c *Combiner) Len() int {
	return len(c.queued) + len(c.sorted)
}

func keyString(key *ir.Node) string {
	js, err := ir.ToJSON(key)
	if err != nil {
		return "?"
	}
	return string(js)
}
