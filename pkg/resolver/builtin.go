package resolver

import (
	"context"

	"mercator-hq/dsm/pkg/docpath"
	"mercator-hq/dsm/pkg/model"
)

// Built-in resolver names.
const (
	ReturnValue      = "return_value"
	JSONKey          = "json_key"
	JSONKeyItem      = "json_key_item"
	KeyLookup        = "key_lookup"
	DNLookup         = "dn_lookup"
	DNLookupLoop     = "dn_lookup_loop"
	GetFromSource    = "get_from_source"
	GetFromInputFile = "get_from_input_file"
	Index            = "index"
	LoopOver         = "loop_over"
	Yield            = "yield"
	IterByKey        = "iter_by_key"
	IterByProp       = "iter_by_prop"
	IterByProp2      = "iter_by_prop2"
)

func builtins() map[string]Func {
	return map[string]Func{
		ReturnValue:      returnValue,
		JSONKey:          jsonKey,
		JSONKeyItem:      jsonKeyItem,
		KeyLookup:        keyLookup,
		DNLookup:         dnLookup,
		DNLookupLoop:     dnLookupLoop,
		GetFromSource:    getFromSource,
		GetFromInputFile: getFromSource,
		Index:            index,
		LoopOver:         loopOver,
		Yield:            yieldContext,
		IterByKey:        iterByKey,
		IterByProp:       iterByProp,
		IterByProp2:      iterByProp2,
	}
}

// returnValue returns the "value" parameter.
func returnValue(_ context.Context, req *Request) (Result, error) {
	v, ok := req.Params["value"]
	if !ok {
		return Result{}, missingParam(req.DN, ReturnValue, "value")
	}
	return Value(v), nil
}

// jsonKey looks up the key "dn" in the document. With "multi" the value
// found there is streamed.
func jsonKey(_ context.Context, req *Request) (Result, error) {
	key, err := req.Params.RequireString(req.DN, JSONKey, "dn")
	if err != nil {
		return Result{}, err
	}
	doc, err := req.Document()
	if err != nil {
		return Result{}, err
	}

	v, found := docpath.Lookup(doc, key)
	multi := req.Params.Bool("multi")
	if !found {
		if d, ok := req.Params.Default(); ok {
			return Value(d), nil
		}
		if multi {
			return Multi(Empty()), nil
		}
		return Result{}, model.ResolutionFailure(req.DN, nil, "key %q not found", key)
	}
	if !multi {
		return Value(v), nil
	}
	return stream(req.DN, v)
}

// jsonKeyItem looks up the key "dn" in the document; a missing key falls
// back to the default or fails.
func jsonKeyItem(_ context.Context, req *Request) (Result, error) {
	key, err := req.Params.RequireString(req.DN, JSONKeyItem, "dn")
	if err != nil {
		return Result{}, err
	}
	doc, err := req.Document()
	if err != nil {
		return Result{}, err
	}

	v, found := docpath.Lookup(doc, key)
	if !found {
		return req.Fallback(notFound(req.DN, "missing data and default for key %q", key))
	}
	return Value(v), nil
}

// keyLookup reads "key" from the current context item, or "dn" from the
// named input document when "source" is set.
func keyLookup(_ context.Context, req *Request) (Result, error) {
	param := "key"
	if req.Params.Has("source") {
		param = "dn"
	}
	key, err := req.Params.RequireString(req.DN, KeyLookup, param)
	if err != nil {
		return Result{}, err
	}
	doc, err := req.Document()
	if err != nil {
		return Result{}, err
	}

	v, found := docpath.Lookup(doc, key)
	if !found {
		return req.Fallback(notFound(req.DN, "key %q not found", key))
	}
	return Value(v), nil
}

// dnLookup resolves the path "dn". With "multi" the value is streamed.
func dnLookup(_ context.Context, req *Request) (Result, error) {
	path, err := req.Params.RequireString(req.DN, DNLookup, "dn")
	if err != nil {
		return Result{}, err
	}
	doc, err := req.Document()
	if err != nil {
		return Result{}, err
	}

	found, v := docpath.Resolve(doc, path)
	if !found {
		return req.Fallback(notFound(req.DN, "path %q not found", path))
	}
	if req.Params.Bool("multi") {
		return stream(req.DN, v)
	}
	return Value(v), nil
}

// dnLookupLoop streams the collection at path "dn". A missing path yields
// the default or an empty stream.
func dnLookupLoop(_ context.Context, req *Request) (Result, error) {
	path, err := req.Params.RequireString(req.DN, DNLookupLoop, "dn")
	if err != nil {
		return Result{}, err
	}
	doc, err := req.Document()
	if err != nil {
		return Result{}, err
	}

	found, v := docpath.Resolve(doc, path)
	if !found {
		if d, ok := req.Params.Default(); ok {
			return Value(d), nil
		}
		return Multi(Empty()), nil
	}
	return stream(req.DN, v)
}

// getFromSource resolves "path_to_target", or "dn" when no target path is
// given.
func getFromSource(_ context.Context, req *Request) (Result, error) {
	path, ok := req.Params.String("path_to_target")
	if !ok || path == "" {
		var err error
		path, err = req.Params.RequireString(req.DN, GetFromSource, "dn")
		if err != nil {
			return Result{}, err
		}
	}
	doc, err := req.Document()
	if err != nil {
		return Result{}, err
	}

	found, v := docpath.Resolve(doc, path)
	if !found {
		return req.Fallback(notFound(req.DN, "path %q not found", path))
	}
	return Value(v), nil
}

// index returns element "index" of the document, usually the current
// positional record.
func index(_ context.Context, req *Request) (Result, error) {
	i, err := req.Params.RequireInt(req.DN, Index, "index")
	if err != nil {
		return Result{}, err
	}
	doc, err := req.Document()
	if err != nil {
		return Result{}, err
	}

	v, found := docpath.Index(doc, i)
	if !found {
		return req.Fallback(notFound(req.DN, "index %d out of range for %T", i, doc))
	}
	return Value(v), nil
}

// loopOver streams every element of the document, narrowed by the optional
// path "dn".
func loopOver(_ context.Context, req *Request) (Result, error) {
	doc, err := req.Document()
	if err != nil {
		return Result{}, err
	}
	if path, ok := req.Params.String("dn"); ok && path != "" {
		found, v := docpath.Resolve(doc, path)
		if !found {
			return req.Fallback(notFound(req.DN, "path %q not found", path))
		}
		doc = v
	}
	return stream(req.DN, doc)
}

// yieldContext passes the current context item through, or one slot of it
// when "index" is given. A string index selects a mapping key.
func yieldContext(_ context.Context, req *Request) (Result, error) {
	raw, ok := req.Params["index"]
	if !ok {
		return Value(req.Current), nil
	}

	if key, isString := raw.(string); isString {
		if v, found := docpath.Lookup(req.Current, key); found {
			return Value(v), nil
		}
		return req.Fallback(notFound(req.DN, "key %q not found in context item", key))
	}

	i, err := docpath.ToIntE(raw)
	if err != nil {
		return Result{}, model.InvalidModel(req.DN, "parameter \"index\" of %s must be an integer or key, got %v", Yield, raw)
	}
	v, found := docpath.Index(req.Current, i)
	if !found {
		return req.Fallback(notFound(req.DN, "index %d out of range for context item", i))
	}
	return Value(v), nil
}

// stream turns a resolved collection into a multi-valued result.
func stream(dn model.DN, v any) (Result, error) {
	elems, ok := docpath.Elements(v)
	if !ok {
		return Result{}, model.ResolutionFailure(dn, nil, "value of type %T is not iterable", v)
	}
	return Multi(FromSlice(elems)), nil
}
