package model

// Kind is the "type" tag of a model node.
type Kind string

const (
	KindDict    Kind = "dict"
	KindList    Kind = "list"
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindFloat   Kind = "float"
	KindBoolean Kind = "boolean"
)

// IsContainer reports whether nodes of this kind hold children instead of data.
func (k Kind) IsContainer() bool {
	return k == KindDict || k == KindList
}

// ListShape describes how a list node builds its elements.
type ListShape int

const (
	// ShapeNone is a list without item, items or nested; it evaluates to an empty list.
	ShapeNone ListShape = iota
	// ShapeItem appends one element per value produced by the source.
	ShapeItem
	// ShapeItems builds a fixed-arity positional sequence per record.
	ShapeItems
	// ShapeNested builds one map per record.
	ShapeNested
)

// String returns the model keyword for the shape.
func (s ListShape) String() string {
	switch s {
	case ShapeItem:
		return "item"
	case ShapeItems:
		return "items"
	case ShapeNested:
		return "nested"
	default:
		return "none"
	}
}

// Field is one named child of a dict node or of a list node with "nested".
type Field struct {
	Name string
	Node *Node
}

// Permission is the permission set granted to one role, e.g. {"read": true}.
// Values are kept as written so that a string "True" is not mistaken for a
// boolean grant.
type Permission map[string]any

// CanRead reports whether the permission grants read access. Only the boolean
// true counts.
func (p Permission) CanRead() bool {
	v, ok := p["read"].(bool)
	return ok && v
}

// Node is one node of a model tree.
type Node struct {
	// Type selects the evaluation strategy. Empty when the model omitted it.
	Type Kind

	// Title, Description and FieldType are free-form metadata copied into
	// flat records. FieldType is kept as written (usually a string).
	Title       string
	Description string
	FieldType   any
	Example     any

	// Nested holds ordered children. Nil when the model has no "nested" key;
	// an empty, non-nil slice when the key is present but empty.
	Nested []Field

	// Item describes a homogeneous list element.
	Item *Node

	// Items describes a fixed-arity positional record.
	Items []*Node

	// Source is nil on pure container nodes.
	Source *Source

	// RBAC maps role name to permission set.
	RBAC map[string]Permission

	// Skip unconditionally removes the node and its subtree.
	Skip bool

	// Extra keeps keys the evaluator does not interpret ("views",
	// "validators", "list_item", ...) for model transforms.
	Extra map[string]any

	// malformed records structural problems found while decoding. They are
	// reported when the node is evaluated or validated.
	malformed []string
}

// Source is the descriptor selecting and configuring a resolver.
type Source struct {
	// Type is the resolver name.
	Type string

	// Params holds every descriptor key except "type", including the filter,
	// postformat and default keys.
	Params map[string]any

	// FilterType names the filter; empty means the default admit-all filter.
	FilterType string

	// FilterArgs are passed to the filter.
	FilterArgs map[string]any

	// Postformat is nil when no transform is configured.
	Postformat *Postformat

	// Default is used when the resolver finds nothing; only meaningful when
	// HasDefault is set, since nil is a legal default.
	Default    any
	HasDefault bool
}

// Postformat names a transform and carries its arguments.
type Postformat struct {
	Type string
	Args map[string]any
}

// HasNested reports whether the node declares a "nested" block.
func (n *Node) HasNested() bool {
	return n.Nested != nil
}

// Child returns the nested child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	for _, f := range n.Nested {
		if f.Name == name {
			return f.Node, true
		}
	}
	return nil, false
}

// Shape returns the list shape of the node. The first declared of item,
// items and nested wins; Validate reports nodes declaring more than one.
func (n *Node) Shape() ListShape {
	switch {
	case n.Item != nil:
		return ShapeItem
	case n.Items != nil:
		return ShapeItems
	case n.Nested != nil:
		return ShapeNested
	default:
		return ShapeNone
	}
}

// IsLeaf reports whether the node is a scalar with no children of any kind.
func (n *Node) IsLeaf() bool {
	return !n.Type.IsContainer() && n.Nested == nil && n.Item == nil && n.Items == nil
}

// Malformed returns the structural problems recorded while decoding the node.
func (n *Node) Malformed() []string {
	return n.malformed
}

func (n *Node) addMalformed(msg string) {
	n.malformed = append(n.malformed, msg)
}
