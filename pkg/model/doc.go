// Package model defines the Data Semantic Model (DSM): the declarative tree
// that describes a target output shape and how each part of it is populated
// from raw input documents.
//
// A model is data, not code. It is usually authored as YAML or JSON and turned
// into a tree of *Node values by Parse, which preserves the key order of every
// "nested" mapping so that evaluation emits fields in the order they were
// written.
//
// # Node shapes
//
//	dict                    children under "nested", evaluated into a map
//	list + nested           one map per record produced by the node's source
//	list + items            one fixed-arity sequence per record
//	list + item             one element per value produced by the source
//	scalar (string, ...)    a single value resolved through the source
//
// Structural problems (a missing "type", a malformed "nested" block) are not
// reported by Parse. They are recorded on the node and surface lazily, scoped to
// the node's DN, when an evaluator reaches it. Validate reports all of them up
// front for linting.
//
// # Distinguished names
//
// A DN is the ordered list of segments leading from the model root to a node.
// Segments are field names or list index markers such as "[0]". DNs are used for
// diagnostics and by path based resolvers; they carry no identity beyond string
// comparison.
package model
