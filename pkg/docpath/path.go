package docpath

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Segments splits a path on dots. The empty path has no segments and
// addresses the whole document.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// IsIndex reports whether seg is a list index marker such as "[2]" or "[]".
func IsIndex(seg string) bool {
	return len(seg) >= 2 && seg[0] == '[' && seg[len(seg)-1] == ']'
}

// ParseIndex returns the index of a list index marker; "[]" is 0.
func ParseIndex(seg string) (int, error) {
	digits := seg[1 : len(seg)-1]
	if digits == "" {
		return 0, nil
	}
	return strconv.Atoi(digits)
}

// Resolve walks path through doc. Any type mismatch, missing key or
// out-of-range index yields (false, nil).
func Resolve(doc any, path string) (bool, any) {
	current := doc
	for _, seg := range Segments(path) {
		var ok bool
		if IsIndex(seg) {
			idx, err := ParseIndex(seg)
			if err != nil {
				return false, nil
			}
			current, ok = index(current, idx)
		} else {
			current, ok = Lookup(current, seg)
		}
		if !ok {
			return false, nil
		}
	}
	return true, current
}

// Iterate resolves path and returns the elements of the collection found
// there. It returns nil when the path is not found or the value is not a
// collection.
func Iterate(doc any, path string) []any {
	found, v := Resolve(doc, path)
	if !found {
		return nil
	}
	elems, _ := Elements(v)
	return elems
}

// Lookup returns the value stored under key in a map.
func Lookup(v any, key string) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		out, ok := m[key]
		return out, ok
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !out.IsValid() {
		return nil, false
	}
	return out.Interface(), true
}

// Elements returns the members of a collection: the elements of a list or
// the sorted keys of a map. Strings and other scalars are not collections.
func Elements(v any) ([]any, bool) {
	switch c := v.(type) {
	case []any:
		return c, true
	case map[string]any:
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out, true
	case string, nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out, true
	}
	return nil, false
}

func index(v any, i int) (any, bool) {
	if list, ok := v.([]any); ok {
		if i < 0 || i >= len(list) {
			return nil, false
		}
		return list[i], true
	}
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if i < 0 || i >= rv.Len() {
		return nil, false
	}
	return rv.Index(i).Interface(), true
}

// Index returns element i of a list value.
func Index(v any, i int) (any, bool) {
	return index(v, i)
}
