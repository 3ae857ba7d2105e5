// Package ir provides the intermediate representation (IR) for documents.
//
// # Overview
//
// The IR package defines the core data structure for representing JSON-like
// documents as a tree of nodes. All documents processed by this module,
// whether decoded from JSON or YAML, built programmatically, or viewed
// through an archived buffer, are represented as ir.Node trees.
//
// The IR works as a recursive tagged union structure, where values are
// placed in fields depending on the node type.
//
// # Node Types
//
// The Type field indicates the node's type:
//
//   - NullType: null value
//   - BoolType: boolean (true/false)
//   - NumberType: numeric value (int64, float64, or decimal string)
//   - StringType: string value
//   - ArrayType: ordered list of nodes
//   - ObjectType: key-value pairs (fields and values)
//
// # Creating Nodes
//
// Use constructor functions to create nodes:
//
//	node := ir.FromString("hello")
//	num := ir.FromInt(42)
//	flag := ir.FromBool(true)
//	obj := ir.FromMap(map[string]*ir.Node{
//	    "key": ir.FromString("value"),
//	})
//	arr := ir.FromSlice([]*ir.Node{
//	    ir.FromInt(1),
//	    ir.FromInt(2),
//	})
//
// # IR Structure Constraints
//
// For ObjectType nodes, Fields[i] is the key for the value at Values[i], so
// there will always be the same number of fields as values. Fields are
// string typed and kept sorted by key. All constructors and mutators in
// this package maintain the sorting; producers building nodes by hand must
// do the same.
//
// Number values are placed under:
//   - Int64: if it is an integer (64-bit signed)
//   - Float64: if it is a floating point number (64-bit IEEE float)
//   - Number: as a decimal string fallback if neither Int64 nor Float64
//     can represent it without loss
//
// # Pointers
//
// The package provides RFC 6901 JSON pointers for addressing locations:
//
//	ptr := ir.MustPointer("/a/b/0")
//	val := ptr.Query(node)        // nil when absent
//	val, err := ptr.Create(node)  // materializes missing steps
//
// # Comparison and Hashing
//
// Nodes have a total order:
//
//	equal := ir.Compare(a, b) == 0
//
// and a content hash:
//
//	hash := node.Hash()
//
// The hash is order invariant over object fields and value based over
// numbers, so it identifies equal content regardless of representation.
//
// # Tape Positions
//
// TapeLength() counts the positions a subtree occupies in a depth-first
// walk. Validation spans and redaction bookkeeping are expressed in these
// positions.
//
// # Thread Safety
//
// Node structures are not thread-safe. If you need to access nodes from
// multiple goroutines, you must synchronize access yourself or clone nodes
// for each goroutine. The read-only archived form in the archive package
// is freely shareable.
//
// # Related Packages
//
//   - github.com/mergeflow/doc-format/go-doc/archive - Zero-copy archived documents
//   - github.com/mergeflow/doc-format/go-doc/schema - Compiled schemas using IR
//   - github.com/mergeflow/doc-format/go-doc/validate - Validation producing outcomes
//   - github.com/mergeflow/doc-format/go-doc/reduce - Reduction strategies over IR nodes
package ir
