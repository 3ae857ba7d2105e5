package schema

import (
	"fmt"
	"sync"
)

// IndexBuilder accumulates schemas into an Index. It is safe for
// concurrent use; the sealed Index it produces is immutable and
// lock-free.
type IndexBuilder struct {
	mu sync.RWMutex

	// canonical URI -> schema, including every nested sub-schema
	byURI map[string]*Schema
	// anchor URI -> schema
	byAnchor map[string]*Schema
}

func NewIndexBuilder() *IndexBuilder {
	return &IndexBuilder{
		byURI:    make(map[string]*Schema),
		byAnchor: make(map[string]*Schema),
	}
}

// Add indexes a schema and all of its nested sub-schemas. It fails on
// canonical or anchor URI collision without partially indexing.
func (b *IndexBuilder) Add(s *Schema) error {
	all := collect(s, nil)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range all {
		if _, ok := b.byURI[sub.CanonicalURI]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateCanonicalURI, sub.CanonicalURI)
		}
		if sub.Anchor != "" {
			if _, ok := b.byAnchor[sub.Anchor]; ok {
				return fmt.Errorf("%w: %q", ErrDuplicateAnchorURI, sub.Anchor)
			}
		}
	}
	for _, sub := range all {
		b.byURI[sub.CanonicalURI] = sub
		if sub.Anchor != "" {
			b.byAnchor[sub.Anchor] = sub
		}
	}
	return nil
}

func collect(s *Schema, acc []*Schema) []*Schema {
	acc = append(acc, s)
	for _, sub := range s.subSchemas() {
		acc = collect(sub, acc)
	}
	return acc
}

// VerifyReferences checks that every $ref of every indexed schema
// resolves, naming the unresolved reference and its containing schema
// on failure. It must succeed before the Index is used.
func (b *IndexBuilder) VerifyReferences() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for uri, s := range b.byURI {
		if s.Ref == "" {
			continue
		}
		if _, ok := b.byURI[s.Ref]; ok {
			continue
		}
		if _, ok := b.byAnchor[s.Ref]; ok {
			continue
		}
		return fmt.Errorf("%w: %q, referenced from %q", ErrInvalidReference, s.Ref, uri)
	}
	return nil
}

// Build verifies references and seals the builder into an immutable
// Index.
func (b *IndexBuilder) Build() (*Index, error) {
	if err := b.VerifyReferences(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := &Index{
		byURI:    make(map[string]*Schema, len(b.byURI)),
		byAnchor: make(map[string]*Schema, len(b.byAnchor)),
	}
	for k, v := range b.byURI {
		idx.byURI[k] = v
	}
	for k, v := range b.byAnchor {
		idx.byAnchor[k] = v
	}
	return idx, nil
}

// MustBuild is Build for statically known-good schema sets.
func (b *IndexBuilder) MustBuild() *Index {
	idx, err := b.Build()
	if err != nil {
		panic(err)
	}
	return idx
}

// Index maps canonical and anchor URIs to compiled schemas. A sealed
// Index is immutable: it may be shared read-only across any number of
// goroutines for the life of the process.
type Index struct {
	byURI    map[string]*Schema
	byAnchor map[string]*Schema
}

// Fetch resolves a URI, returning nil when unknown.
func (i *Index) Fetch(uri string) *Schema {
	if s, ok := i.byURI[uri]; ok {
		return s
	}
	return i.byAnchor[uri]
}

// MustFetch resolves a URI, failing with ErrNotFound when unknown.
func (i *Index) MustFetch(uri string) (*Schema, error) {
	if s := i.Fetch(uri); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, uri)
}
