// Package schema compiles bundled JSON-Schema documents and indexes
// them by canonical URI.
//
// A bundled schema is self-contained: every $ref target is inlined
// under an explicit $id. Build compiles one such document into a
// Schema tree whose keywords fall into three classes:
//
//   - Application keywords ($ref, properties, items, anyOf, ...) apply
//     sub-schemas to children or to the same location.
//   - Validation keywords (type, const, minimum, ...) assert over a
//     document value.
//   - Annotation keywords (title, default, reduce, redact, x-*) carry
//     values attached to validated locations.
//
// Reduce and redact annotations parse into Strategy and RedactStrategy
// at build time; malformed or self-contradictory annotations fail the
// build rather than surfacing mid-pipeline.
//
// An IndexBuilder accumulates compiled schemas, verifies that every
// $ref resolves, and seals into an immutable Index:
//
//	idx := schema.NewIndexBuilder()
//	if err := idx.Add(s); err != nil { ... }
//	index, err := idx.Build()
//
// The sealed Index is shared read-only by any number of concurrent
// workers; resolving a $ref mid-walk is a map lookup, never I/O.
package schema
