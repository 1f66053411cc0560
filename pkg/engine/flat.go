package engine

import (
	"mercator-hq/dsm/pkg/model"
	"mercator-hq/dsm/pkg/rbac"
)

// flatFunc is one of the flat evaluators.
type flatFunc func(n *model.Node, dn model.DN, current any, emit func(Record) error) error

// flat computes the common fields and runs walk over root, counting the
// emitted records.
func (ev *evaluator) flat(root *model.Node, emit func(Record) error, walk flatFunc) (int, error) {
	if err := ev.loadCommon(root); err != nil {
		return 0, err
	}
	count := 0
	err := walk(root, nil, nil, func(r Record) error {
		count++
		return emit(r)
	})
	return count, err
}

// loadCommon evaluates the first common child of root found among the
// configured keys and keeps its fields, prefixed, for every record.
func (ev *evaluator) loadCommon(root *model.Node) error {
	ev.common = Record{}
	if root == nil || root.Nested == nil {
		return nil
	}

	cfg := ev.engine.config
	for _, key := range cfg.CommonKeys {
		child, ok := root.Child(key)
		if !ok {
			continue
		}
		dn := model.DN{key}
		v, err := ev.detail(child, dn, nil)
		if err != nil {
			return err
		}
		fields, ok := v.(map[string]any)
		if !ok {
			return model.InvalidModel(dn, "common fields must come from a dict, got %s", child.Type)
		}
		for name, value := range fields {
			ev.common[cfg.CommonPrefix+name] = value
		}
		return nil
	}
	return nil
}

// items emits one record per scalar leaf.
func (ev *evaluator) items(n *model.Node, dn model.DN, current any, emit func(Record) error) error {
	if err := ev.enter(n, dn); err != nil {
		return err
	}

	switch n.Type {
	case model.KindDict:
		for _, f := range rbac.Filter(n.Nested, ev.roles) {
			if err := ev.items(f.Node, dn.Child(f.Name), current, emit); err != nil {
				return err
			}
		}
		return nil

	case model.KindList:
		return ev.flatList(n, dn, current, emit, ev.items, ev.itemRecord)

	default:
		v, err := ev.single(n, dn, current)
		if err != nil {
			return err
		}
		return emit(ev.itemRecord(n, dn, v))
	}
}

// nodes emits one record per leaf, grouping the scalar children of a node
// whose nested children have no nested block of their own.
func (ev *evaluator) nodes(n *model.Node, dn model.DN, current any, emit func(Record) error) error {
	if err := ev.enter(n, dn); err != nil {
		return err
	}

	switch n.Type {
	case model.KindDict:
		if grouped(n) {
			v, err := ev.record(n, dn, current)
			if err != nil {
				return err
			}
			return emit(ev.groupRecord(n, dn, v))
		}
		for _, f := range rbac.Filter(n.Nested, ev.roles) {
			if err := ev.nodes(f.Node, dn.Child(f.Name), current, emit); err != nil {
				return err
			}
		}
		return nil

	case model.KindList:
		if n.Shape() == model.ShapeNested && grouped(n) {
			return ev.each(n, dn, current, func(rec any) error {
				v, err := ev.record(n, dn, rec)
				if err != nil {
					return err
				}
				return emit(ev.groupRecord(n, dn, v))
			})
		}
		return ev.flatList(n, dn, current, emit, ev.nodes, ev.nodeRecord)

	default:
		v, err := ev.single(n, dn, current)
		if err != nil {
			return err
		}
		return emit(ev.nodeRecord(n, dn, v))
	}
}

// flatList walks the records of a list node for a flat evaluator. Container
// children recurse through walk; scalar children become one leaf record
// each.
func (ev *evaluator) flatList(n *model.Node, dn model.DN, current any, emit func(Record) error,
	walk flatFunc, leaf func(*model.Node, model.DN, any) Record) error {
	switch n.Shape() {
	case model.ShapeNested:
		return ev.each(n, dn, current, func(rec any) error {
			for _, f := range rbac.Filter(n.Nested, ev.roles) {
				if err := walk(f.Node, dn.Child(f.Name), rec, emit); err != nil {
					return err
				}
			}
			return nil
		})

	case model.ShapeItems:
		itemDN := dn.Child("item")
		return ev.each(n, dn, current, func(rec any) error {
			for _, child := range n.Items {
				if !rbac.Visible(child, ev.roles) {
					continue
				}
				if err := ev.flatChild(child, itemDN, rec, true, emit, walk, leaf); err != nil {
					return err
				}
			}
			return nil
		})

	case model.ShapeItem:
		if !rbac.Visible(n.Item, ev.roles) {
			return nil
		}
		itemDN := dn.Child("item")
		if err := n.Item.Check(itemDN); err != nil {
			return err
		}
		return ev.each(n, dn, current, func(elem any) error {
			return ev.flatChild(n.Item, itemDN, elem, ev.recurseInto(n.Item), emit, walk, leaf)
		})

	default:
		return nil
	}
}

// flatChild evaluates one positional or element child. When resolve is
// false the element itself is the leaf value.
func (ev *evaluator) flatChild(child *model.Node, dn model.DN, elem any, resolve bool, emit func(Record) error,
	walk flatFunc, leaf func(*model.Node, model.DN, any) Record) error {
	if !resolve {
		return emit(leaf(child, dn, elem))
	}
	if child.Type.IsContainer() {
		return walk(child, dn, elem, emit)
	}
	if err := ev.enter(child, dn); err != nil {
		return err
	}
	v, err := ev.single(child, dn, elem)
	if err != nil {
		return err
	}
	return emit(leaf(child, dn, v))
}

// grouped reports whether n's nested children all lack a nested block, so
// that they are emitted as one combined record.
func grouped(n *model.Node) bool {
	if n.Nested == nil {
		return false
	}
	for _, f := range n.Nested {
		if f.Node.Nested != nil {
			return false
		}
	}
	return true
}
