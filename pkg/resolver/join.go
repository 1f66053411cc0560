package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"mercator-hq/dsm/pkg/docpath"
	"mercator-hq/dsm/pkg/model"
)

// joinSource returns the named input narrowed by "dn_data_source".
func joinSource(req *Request, resolver string) (any, error) {
	doc, err := req.Input(resolver)
	if err != nil {
		return nil, err
	}
	path, ok := req.Params.String("dn_data_source")
	if !ok {
		return doc, nil
	}
	found, v := docpath.Resolve(doc, path)
	if !found {
		return nil, model.ResolutionFailure(req.DN, nil, "data source path %q not found", path)
	}
	return v, nil
}

// iterByKey pivots a list of records. Each record's "key" field names a
// column whose values sit at "dn_to_values"; the ids found at "dn_to_ids"
// (resolved against the whole list) select one output row each:
//
//	[{name: apple, values: {id_1: v1}}, {name: banana, values: {id_1: va}}]
//	=> {apple: v1, banana: va}
func iterByKey(_ context.Context, req *Request) (Result, error) {
	key, err := req.Params.RequireString(req.DN, IterByKey, "key")
	if err != nil {
		return Result{}, err
	}
	idsPath, err := req.Params.RequireString(req.DN, IterByKey, "dn_to_ids")
	if err != nil {
		return Result{}, err
	}
	valuesPath, err := req.Params.RequireString(req.DN, IterByKey, "dn_to_values")
	if err != nil {
		return Result{}, err
	}

	source, err := joinSource(req, IterByKey)
	if err != nil {
		return Result{}, err
	}
	records, ok := source.([]any)
	if !ok {
		return Result{}, model.ResolutionFailure(req.DN, nil, "%s needs a list of records, got %T", IterByKey, source)
	}

	columns := make([]string, 0, len(records))
	buffer := make(map[string]any, len(records))
	for i, record := range records {
		name, found := docpath.Lookup(record, key)
		if !found {
			return Result{}, model.ResolutionFailure(req.DN.Index(i), nil, "record has no key %q", key)
		}
		column := cast.ToString(name)
		columns = append(columns, column)
		if found, values := docpath.Resolve(record, valuesPath); found {
			buffer[column] = values
		}
	}

	found, ids := docpath.Resolve(source, idsPath)
	if !found {
		return Multi(Empty()), nil
	}
	idList, ok := docpath.Elements(ids)
	if !ok {
		return Result{}, model.ResolutionFailure(req.DN, nil, "ids at %q are not iterable", idsPath)
	}

	pos := 0
	return Multi(StreamFunc(func() (any, bool, error) {
		if pos >= len(idList) {
			return nil, false, nil
		}
		id := cast.ToString(idList[pos])
		pos++

		row := make(map[string]any, len(columns))
		for _, column := range columns {
			v, _ := docpath.Lookup(buffer[column], id)
			row[column] = v
		}
		return row, true, nil
	})), nil
}

// propRows groups the elements of a mapping of lists by the id found at
// "dn_to_id", collecting the value at "dn_to_value" under the list's key.
// Rows come out in first-seen id order; keys are visited sorted.
func propRows(req *Request, resolver string) ([]any, []map[string]any, error) {
	idPath, err := req.Params.RequireString(req.DN, resolver, "dn_to_id")
	if err != nil {
		return nil, nil, err
	}
	valuePath, err := req.Params.RequireString(req.DN, resolver, "dn_to_value")
	if err != nil {
		return nil, nil, err
	}

	source, err := joinSource(req, resolver)
	if err != nil {
		return nil, nil, err
	}
	groups, ok := source.(map[string]any)
	if !ok {
		return nil, nil, model.ResolutionFailure(req.DN, nil, "%s needs a mapping of lists, got %T", resolver, source)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var ids []any
	var rows []map[string]any
	byID := make(map[string]int)
	for _, key := range keys {
		elems, ok := docpath.Elements(groups[key])
		if !ok {
			return nil, nil, model.ResolutionFailure(req.DN.Child(key), nil, "value of type %T is not iterable", groups[key])
		}
		for _, elem := range elems {
			valueFound, value := docpath.Resolve(elem, valuePath)
			idFound, id := docpath.Resolve(elem, idPath)
			if !valueFound || !idFound {
				continue
			}
			idKey := fmt.Sprintf("%T:%v", id, id)
			pos, seen := byID[idKey]
			if !seen {
				pos = len(rows)
				byID[idKey] = pos
				ids = append(ids, id)
				rows = append(rows, make(map[string]any))
			}
			rows[pos][key] = value
		}
	}
	return ids, rows, nil
}

// iterByProp pivots a mapping of lists into one row per id, the id stored
// under "id".
func iterByProp(_ context.Context, req *Request) (Result, error) {
	ids, rows, err := propRows(req, IterByProp)
	if err != nil {
		return Result{}, err
	}
	return Multi(rowStream(ids, rows, func(id any) any { return id })), nil
}

// iterByProp2 is iterByProp with the id rewritten into a "(source,group)"
// label.
func iterByProp2(_ context.Context, req *Request) (Result, error) {
	ids, rows, err := propRows(req, IterByProp2)
	if err != nil {
		return Result{}, err
	}
	return Multi(rowStream(ids, rows, func(id any) any { return GroupLabel(cast.ToString(id)) })), nil
}

func rowStream(ids []any, rows []map[string]any, label func(any) any) Stream {
	pos := 0
	return StreamFunc(func() (any, bool, error) {
		if pos >= len(rows) {
			return nil, false, nil
		}
		row := make(map[string]any, len(rows[pos])+1)
		for k, v := range rows[pos] {
			row[k] = v
		}
		row["id"] = label(ids[pos])
		pos++
		return row, true, nil
	})
}

// GroupLabel builds the "(source,group)" label of a dotted identifier: the
// group is segments 2 to 5 and the source segments 7 to 10, each rejoined
// with dots. Missing segments are dropped.
func GroupLabel(id string) string {
	parts := strings.Split(id, ".")
	return fmt.Sprintf("(%s,%s)", strings.Join(window(parts, 7, 11), "."), strings.Join(window(parts, 2, 6), "."))
}

func window(parts []string, from, to int) []string {
	if from > len(parts) {
		return nil
	}
	if to > len(parts) {
		to = len(parts)
	}
	return parts[from:to]
}
