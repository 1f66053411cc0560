package pipeline

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"mercator-hq/dsm/pkg/docpath"
)

// Filter names.
const (
	FilterDefault        = "default"
	FilterDictKeyIsEmpty = "dict_key_is_empty"
	FilterNotContains    = "not_contains"
	FilterContains       = "contains"
)

// Filter reports whether item is admitted into the stream.
type Filter func(item any, args map[string]any) (bool, error)

// FilterRegistry holds the named filters.
type FilterRegistry struct {
	*registry[Filter]
}

// NewFilterRegistry returns a registry holding the built-in filters.
func NewFilterRegistry() *FilterRegistry {
	r := &FilterRegistry{registry: newRegistry[Filter]("filter")}
	r.funcs[FilterDefault] = admitAll
	r.funcs[FilterDictKeyIsEmpty] = dictKeyIsEmpty
	r.funcs[FilterNotContains] = containsArg
	r.funcs[FilterContains] = func(item any, args map[string]any) (bool, error) {
		in, err := containsArg(item, args)
		return !in, err
	}
	return r
}

func admitAll(any, map[string]any) (bool, error) {
	return true, nil
}

// dictKeyIsEmpty rejects records whose "key" field is missing or empty.
func dictKeyIsEmpty(item any, args map[string]any) (bool, error) {
	key, ok := args["key"]
	if !ok {
		return false, fmt.Errorf("missing filter argument %q", "key")
	}
	if item == nil || reflect.TypeOf(item).Kind() != reflect.Map {
		return false, fmt.Errorf("filter %s needs a record, got %T", FilterDictKeyIsEmpty, item)
	}
	v, _ := docpath.Lookup(item, cast.ToString(key))
	return truthy(v), nil
}

// containsArg reports whether "arg" is a substring of a string item, a
// member of a list item or a key of a record item.
func containsArg(item any, args map[string]any) (bool, error) {
	arg, ok := args["arg"]
	if !ok {
		return false, fmt.Errorf("missing filter argument %q", "arg")
	}

	switch t := item.(type) {
	case string:
		s, err := cast.ToStringE(arg)
		if err != nil {
			return false, fmt.Errorf("filter argument must be a string for string items: %w", err)
		}
		return strings.Contains(t, s), nil
	case []any:
		for _, elem := range t {
			if reflect.DeepEqual(elem, arg) {
				return true, nil
			}
		}
		return false, nil
	case map[string]any:
		_, found := t[cast.ToString(arg)]
		return found, nil
	default:
		return false, fmt.Errorf("cannot test membership in %T", item)
	}
}

// truthy follows the usual emptiness rules: nil, false, zero numbers and
// empty strings or collections are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return !rv.IsZero()
	}
	return true
}
