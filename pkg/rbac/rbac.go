// Package rbac decides which model nodes are visible to a set of active
// roles.
//
// Visibility is strictly per node: only the node's own rbac map is
// consulted, never an ancestor's or a child's.
package rbac

import "mercator-hq/dsm/pkg/model"

// Visible reports whether n is materialized for roles. A skipped node is
// never visible; with no active roles every other node is. Otherwise at least
// one active role must hold a permission whose "read" is the boolean true.
func Visible(n *model.Node, roles []string) bool {
	if n == nil || n.Skip {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if perm, ok := n.RBAC[role]; ok && perm.CanRead() {
			return true
		}
	}
	return false
}

// Filter returns the fields visible to roles, in model order.
func Filter(fields []model.Field, roles []string) []model.Field {
	out := make([]model.Field, 0, len(fields))
	for _, f := range fields {
		if Visible(f.Node, roles) {
			out = append(out, f)
		}
	}
	return out
}
