package engine

import (
	"mercator-hq/dsm/pkg/model"
	"mercator-hq/dsm/pkg/rbac"
)

// Record keys of list mode.
const (
	KeyValue       = "value"
	KeyDN          = "dn"
	KeyTitle       = "title"
	KeyDescription = "description"
	KeyType        = "type"
	KeyFieldType   = "field_type"
)

// Record keys of node mode.
const (
	KeyNodeDN          = "_dn"
	KeyNodeTitle       = "_title"
	KeyNodeDescription = "_description"
	KeyNodeType        = "_type"
	KeyNodeFieldType   = "_field_type"
	KeyColumns         = "__columns"
)

// itemRecord builds a list-mode record.
func (ev *evaluator) itemRecord(n *model.Node, dn model.DN, value any) Record {
	r := ev.newRecord(6)
	r[KeyValue] = value
	r[KeyDN] = dn
	r[KeyTitle] = optional(n.Title)
	r[KeyDescription] = optional(n.Description)
	r[KeyType] = string(n.Type)
	r[KeyFieldType] = n.FieldType
	return r
}

// nodeRecord builds a node-mode leaf record. A record-shaped value is
// merged into it; anything else is stored under "value".
func (ev *evaluator) nodeRecord(n *model.Node, dn model.DN, value any) Record {
	r := ev.newRecord(6)
	r[KeyNodeDN] = dn
	r[KeyNodeTitle] = optional(n.Title)
	r[KeyNodeDescription] = optional(n.Description)
	r[KeyNodeType] = string(n.Type)
	r[KeyNodeFieldType] = n.FieldType
	if fields, ok := value.(map[string]any); ok {
		for k, v := range fields {
			r[k] = v
		}
	} else {
		r[KeyValue] = value
	}
	return r
}

// groupRecord builds a node-mode record combining the visible children of n
// found in values. Each column carries its DN and type alongside the value.
func (ev *evaluator) groupRecord(n *model.Node, dn model.DN, values map[string]any) Record {
	r := ev.newRecord(2 + 3*len(values))
	r[KeyNodeDN] = dn

	columns := make([]string, 0, len(values))
	for _, f := range rbac.Filter(n.Nested, ev.roles) {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		columns = append(columns, f.Name)
		r[f.Name] = v
		r["_"+f.Name+"_dn"] = dn.Child(f.Name)
		r["_"+f.Name+"_type"] = string(f.Node.Type)
	}
	r[KeyColumns] = columns
	return r
}

func (ev *evaluator) newRecord(size int) Record {
	r := make(Record, size+len(ev.common))
	for k, v := range ev.common {
		r[k] = v
	}
	return r
}

// optional maps an absent metadata string to nil.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
