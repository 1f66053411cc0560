package model

import "fmt"

// WalkFunc is called for every node visited by Walk.
type WalkFunc func(n *Node, dn DN) error

// Walk visits n and all of its descendants depth-first, parents before
// children. Nested children are addressed by name, the "item" child by
// "item" and positional children by "items". The first error stops the walk.
func Walk(n *Node, dn DN, fn WalkFunc) error {
	if n == nil {
		return nil
	}
	if err := fn(n, dn); err != nil {
		return err
	}
	for _, f := range n.Nested {
		if err := Walk(f.Node, dn.Child(f.Name), fn); err != nil {
			return err
		}
	}
	if n.Item != nil {
		if err := Walk(n.Item, dn.Child("item"), fn); err != nil {
			return err
		}
	}
	for _, child := range n.Items {
		if err := Walk(child, dn.Child("items"), fn); err != nil {
			return err
		}
	}
	return nil
}

// ViewsToRBAC rewrites a legacy "views" list of role names into an rbac map
// granting every permission to each listed role.
func ViewsToRBAC(n *Node, dn DN) error {
	raw, ok := n.Extra["views"]
	if !ok {
		return nil
	}
	views, ok := raw.([]any)
	if !ok {
		return InvalidModel(dn, "'views' must be a list of role names, got %T", raw)
	}

	rbac := make(map[string]Permission, len(views))
	for _, v := range views {
		role, ok := v.(string)
		if !ok {
			return InvalidModel(dn, "'views' must be a list of role names, got element %T", v)
		}
		rbac[role] = Permission{"read": true, "update": true, "create": true, "delete": true}
	}
	n.RBAC = rbac
	delete(n.Extra, "views")
	return nil
}

// ValidatorsToFieldType drops the legacy "list_item" block and moves
// "validators" into FieldType.
func ValidatorsToFieldType(n *Node, dn DN) error {
	delete(n.Extra, "list_item")
	if v, ok := n.Extra["validators"]; ok {
		n.FieldType = v
		delete(n.Extra, "validators")
	}
	return nil
}

// Upgrade applies all legacy model transforms to the tree rooted at n.
func Upgrade(n *Node) error {
	err := Walk(n, nil, func(node *Node, dn DN) error {
		if err := ViewsToRBAC(node, dn); err != nil {
			return err
		}
		return ValidatorsToFieldType(node, dn)
	})
	if err != nil {
		return fmt.Errorf("failed to upgrade model: %w", err)
	}
	return nil
}
