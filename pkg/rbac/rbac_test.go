package rbac

import (
	"testing"

	"mercator-hq/dsm/pkg/model"
)

// TestVisible tests per-node read checks.
func TestVisible(t *testing.T) {
	full := map[string]model.Permission{"full": {"read": true}}
	both := map[string]model.Permission{"full": {"read": true}, "restricted": {"read": true}}

	tests := []struct {
		name  string
		node  *model.Node
		roles []string
		want  bool
	}{
		{name: "no roles", node: &model.Node{}, want: true},
		{name: "no roles but skipped", node: &model.Node{Skip: true}, want: false},
		{name: "granted", node: &model.Node{RBAC: full}, roles: []string{"full"}, want: true},
		{name: "other role", node: &model.Node{RBAC: full}, roles: []string{"restricted"}, want: false},
		{name: "any of roles", node: &model.Node{RBAC: full}, roles: []string{"restricted", "full"}, want: true},
		{name: "no rbac with roles", node: &model.Node{}, roles: []string{"full"}, want: false},
		{name: "string read is not a grant", node: &model.Node{RBAC: map[string]model.Permission{"full": {"read": "True"}}}, roles: []string{"full"}, want: false},
		{name: "update only", node: &model.Node{RBAC: map[string]model.Permission{"full": {"update": true}}}, roles: []string{"full"}, want: false},
		{name: "skip beats rbac", node: &model.Node{RBAC: both, Skip: true}, roles: []string{"full"}, want: false},
		{name: "nil node", node: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Visible(tt.node, tt.roles); got != tt.want {
				t.Errorf("Visible() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestFilter tests that hidden fields are dropped in order.
func TestFilter(t *testing.T) {
	fields := []model.Field{
		{Name: "name", Node: &model.Node{RBAC: map[string]model.Permission{"admin": {"read": true}}}},
		{Name: "vlan", Node: &model.Node{}},
		{Name: "ip_address", Node: &model.Node{RBAC: map[string]model.Permission{"admin": {"read": true}}}},
	}

	got := Filter(fields, []string{"admin"})
	if len(got) != 2 || got[0].Name != "name" || got[1].Name != "ip_address" {
		t.Errorf("Filter() = %+v, want name and ip_address", got)
	}
}
