package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mercator-hq/dsm/pkg/docpath"
)

// Parse decodes a YAML or JSON model document into a node tree. Only
// syntax errors and a non-mapping root are reported here; structural problems
// are recorded on the affected nodes (see Node.Check).
func Parse(data []byte) (*Node, error) {
	root, err := docpath.ParseNode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("model root must be a mapping, got %s", kindName(root))
	}
	return buildNode(root), nil
}

// ParseFile reads and parses a model file.
func ParseFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %q: %w", path, err)
	}
	node, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("model file %q: %w", path, err)
	}
	return node, nil
}

// FromMap builds a node tree from an already decoded document. Go maps are
// unordered, so nested children come out sorted by name; use Parse when field
// order matters.
func FromMap(m map[string]any) (*Node, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	return Parse(data)
}

// buildNode transforms a YAML mapping into a Node.
func buildNode(y *yaml.Node) *Node {
	n := &Node{}
	for i := 0; i+1 < len(y.Content); i += 2 {
		key := y.Content[i].Value
		val := y.Content[i+1]

		switch key {
		case "type":
			var s string
			if err := val.Decode(&s); err != nil {
				n.addMalformed(fmt.Sprintf("'type' must be a string: %v", err))
				continue
			}
			n.Type = Kind(s)

		case "title":
			n.Title = scalarString(n, key, val)

		case "description":
			n.Description = scalarString(n, key, val)

		case "field_type":
			n.FieldType = decodeAny(n, key, val)

		case "example":
			n.Example = decodeAny(n, key, val)

		case "nested":
			n.Nested = make([]Field, 0, len(val.Content)/2)
			if val.Kind != yaml.MappingNode {
				n.addMalformed(fmt.Sprintf("'nested' must be a mapping, got %s", kindName(val)))
				continue
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := val.Content[j].Value
				n.Nested = append(n.Nested, Field{Name: name, Node: buildChild(name, val.Content[j+1])})
			}

		case "item":
			n.Item = buildChild(key, val)

		case "items":
			n.Items = make([]*Node, 0, len(val.Content))
			if val.Kind != yaml.SequenceNode {
				n.addMalformed(fmt.Sprintf("'items' must be a sequence, got %s", kindName(val)))
				continue
			}
			for j, elem := range val.Content {
				n.Items = append(n.Items, buildChild(fmt.Sprintf("items[%d]", j), elem))
			}

		case "source":
			if val.Kind != yaml.MappingNode {
				n.addMalformed(fmt.Sprintf("'source' must be a mapping, got %s", kindName(val)))
				continue
			}
			src, err := buildSource(val)
			if err != nil {
				n.addMalformed(err.Error())
				continue
			}
			n.Source = src

		case "rbac":
			var rbac map[string]Permission
			if err := val.Decode(&rbac); err != nil {
				n.addMalformed(fmt.Sprintf("'rbac' must map roles to permission sets: %v", err))
				continue
			}
			n.RBAC = rbac

		case "skip":
			var skip bool
			if err := val.Decode(&skip); err != nil {
				n.addMalformed(fmt.Sprintf("'skip' must be a boolean: %v", err))
				continue
			}
			n.Skip = skip

		default:
			if n.Extra == nil {
				n.Extra = make(map[string]any)
			}
			n.Extra[key] = decodeAny(n, key, val)
		}
	}
	return n
}

// buildChild builds a child node; a non-mapping child becomes an empty node
// carrying the problem so the error surfaces at the child's DN.
func buildChild(name string, y *yaml.Node) *Node {
	if y.Kind != yaml.MappingNode {
		n := &Node{}
		n.addMalformed(fmt.Sprintf("child %q must be a mapping, got %s", name, kindName(y)))
		return n
	}
	return buildNode(y)
}

// buildSource decodes a source descriptor.
func buildSource(y *yaml.Node) (*Source, error) {
	var raw map[string]any
	if err := y.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid 'source': %w", err)
	}
	raw = docpath.Normalize(raw).(map[string]any)

	src := &Source{Params: make(map[string]any, len(raw))}
	for k, v := range raw {
		if k == "type" {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("source 'type' must be a string, got %T", v)
			}
			src.Type = s
			continue
		}
		src.Params[k] = v
	}

	if v, ok := raw["filter_type"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("source 'filter_type' must be a string, got %T", v)
		}
		src.FilterType = s
	}
	if v, ok := raw["filter_args"]; ok && v != nil {
		args, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("source 'filter_args' must be a mapping, got %T", v)
		}
		src.FilterArgs = args
	}
	if v, ok := raw["postformat"]; ok && v != nil {
		opts, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("source 'postformat' must be a mapping, got %T", v)
		}
		pf := &Postformat{Type: "default", Args: make(map[string]any, len(opts))}
		for k, a := range opts {
			if k == "type" {
				s, ok := a.(string)
				if !ok {
					return nil, fmt.Errorf("postformat 'type' must be a string, got %T", a)
				}
				pf.Type = s
				continue
			}
			pf.Args[k] = a
		}
		src.Postformat = pf
	}
	if v, ok := raw["default"]; ok {
		src.Default = v
		src.HasDefault = true
	}
	return src, nil
}

func scalarString(n *Node, key string, y *yaml.Node) string {
	if y.Kind != yaml.ScalarNode {
		n.addMalformed(fmt.Sprintf("'%s' must be a scalar, got %s", key, kindName(y)))
		return ""
	}
	if y.Tag == "!!null" {
		return ""
	}
	return y.Value
}

func decodeAny(n *Node, key string, y *yaml.Node) any {
	var v any
	if err := y.Decode(&v); err != nil {
		n.addMalformed(fmt.Sprintf("invalid %q: %v", key, err))
		return nil
	}
	return docpath.Normalize(v)
}

func kindName(y *yaml.Node) string {
	switch y.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
