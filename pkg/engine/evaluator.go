package engine

import (
	"context"
	"fmt"

	"mercator-hq/dsm/pkg/model"
	"mercator-hq/dsm/pkg/rbac"
	"mercator-hq/dsm/pkg/resolver"
)

// evaluator holds the state of one top-level evaluation.
type evaluator struct {
	ctx    context.Context
	engine *Engine
	inputs resolver.Documents
	roles  []string

	// common is merged into every flat record.
	common Record
}

func newEvaluator(ctx context.Context, e *Engine, in Input) *evaluator {
	inputs := in.Documents
	if inputs == nil {
		inputs = resolver.Documents{}
	}
	return &evaluator{
		ctx:    ctx,
		engine: e,
		inputs: inputs,
		roles:  in.Roles,
	}
}

// detail evaluates n at dn with current as the context item.
func (ev *evaluator) detail(n *model.Node, dn model.DN, current any) (any, error) {
	if err := ev.enter(n, dn); err != nil {
		return nil, err
	}

	switch n.Type {
	case model.KindDict:
		return ev.record(n, dn, current)

	case model.KindList:
		out := make([]any, 0)
		switch n.Shape() {
		case model.ShapeNested:
			err := ev.each(n, dn, current, func(rec any) error {
				v, err := ev.record(n, dn, rec)
				if err != nil {
					return err
				}
				out = append(out, v)
				return nil
			})
			return out, err

		case model.ShapeItems:
			itemDN := dn.Child("item")
			err := ev.each(n, dn, current, func(rec any) error {
				row := make([]any, 0, len(n.Items))
				for _, child := range n.Items {
					if !rbac.Visible(child, ev.roles) {
						continue
					}
					v, err := ev.detail(child, itemDN, rec)
					if err != nil {
						return err
					}
					row = append(row, v)
				}
				out = append(out, row)
				return nil
			})
			return out, err

		case model.ShapeItem:
			if !rbac.Visible(n.Item, ev.roles) {
				return out, nil
			}
			itemDN := dn.Child("item")
			if err := n.Item.Check(itemDN); err != nil {
				return nil, err
			}
			err := ev.each(n, dn, current, func(elem any) error {
				if !ev.recurseInto(n.Item) {
					out = append(out, elem)
					return nil
				}
				v, err := ev.detail(n.Item, itemDN, elem)
				if err != nil {
					return err
				}
				out = append(out, v)
				return nil
			})
			return out, err

		default:
			return out, nil
		}

	default:
		return ev.single(n, dn, current)
	}
}

// record builds the map of n's visible nested children.
func (ev *evaluator) record(n *model.Node, dn model.DN, current any) (map[string]any, error) {
	out := make(map[string]any, len(n.Nested))
	for _, f := range rbac.Filter(n.Nested, ev.roles) {
		v, err := ev.detail(f.Node, dn.Child(f.Name), current)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

// enter checks cancellation and the node's structure.
func (ev *evaluator) enter(n *model.Node, dn model.DN) error {
	if err := ev.ctx.Err(); err != nil {
		return fmt.Errorf("evaluation stopped at dn %s: %w", dn, err)
	}
	return n.Check(dn)
}

// recurseInto reports whether a list element is evaluated against the
// "item" schema instead of being kept as resolved: the item must be a dict
// or carry its own source.
func (ev *evaluator) recurseInto(item *model.Node) bool {
	if !ev.engine.config.RecurseItem {
		return false
	}
	return item.Type == model.KindDict || item.Source != nil
}
