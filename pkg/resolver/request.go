package resolver

import (
	"fmt"

	"github.com/spf13/cast"

	"mercator-hq/dsm/pkg/docpath"
	"mercator-hq/dsm/pkg/model"
)

// Documents maps input document names to decoded documents.
type Documents map[string]any

// Request carries everything a resolver may read.
type Request struct {
	// Params are the source descriptor keys, "type" excluded.
	Params Params

	// Node owns the descriptor.
	Node *model.Node

	// DN is the caller's position in the model tree, for diagnostics.
	DN model.DN

	// Inputs are the named input documents of the evaluation.
	Inputs Documents

	// Current is the current context item: the record a parent list is
	// iterating over. Nil outside record iteration.
	Current any
}

// Document returns the data the resolver reads: the input named by the
// "source" parameter, or the current context item when no source is named.
func (r *Request) Document() (any, error) {
	name, ok := r.Params["source"]
	if !ok {
		return r.Current, nil
	}
	key, err := cast.ToStringE(name)
	if err != nil {
		return nil, model.InvalidModel(r.DN, "parameter 'source' must be a string, got %T", name)
	}
	doc, ok := r.Inputs[key]
	if !ok {
		return nil, model.ResolutionFailure(r.DN, nil, "unknown input document %q", key)
	}
	return doc, nil
}

// Input returns the input document named by the required "source"
// parameter.
func (r *Request) Input(resolver string) (any, error) {
	if _, ok := r.Params["source"]; !ok {
		return nil, missingParam(r.DN, resolver, "source")
	}
	return r.Document()
}

// Fallback returns the descriptor default when one is configured, otherwise
// the error built by fail.
func (r *Request) Fallback(fail func() error) (Result, error) {
	if v, ok := r.Params.Default(); ok {
		return Value(v), nil
	}
	return Result{}, fail()
}

// Params is the parameter map of a source descriptor.
type Params map[string]any

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Default returns the descriptor's "default" value.
func (p Params) Default() (any, bool) {
	v, ok := p["default"]
	return v, ok
}

// Bool returns key coerced to a boolean; false when absent or not coercible.
func (p Params) Bool(key string) bool {
	v, ok := p[key]
	if !ok {
		return false
	}
	b, err := cast.ToBoolE(v)
	return err == nil && b
}

// String returns key coerced to a string.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return s, true
}

// RequireString returns key as a string or an invalid-model error naming the
// resolver and dn.
func (p Params) RequireString(dn model.DN, resolver, key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", missingParam(dn, resolver, key)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", model.InvalidModel(dn, "parameter %q of %s must be a string, got %T", key, resolver, v)
	}
	return s, nil
}

// RequireInt returns key as an int or an invalid-model error.
func (p Params) RequireInt(dn model.DN, resolver, key string) (int, error) {
	v, ok := p[key]
	if !ok {
		return 0, missingParam(dn, resolver, key)
	}
	i, err := docpath.ToIntE(v)
	if err != nil {
		return 0, model.InvalidModel(dn, "parameter %q of %s must be an integer, got %v", key, resolver, v)
	}
	return i, nil
}

func missingParam(dn model.DN, resolver, key string) error {
	return model.InvalidModel(dn, "missing required parameter %q for source %s", key, resolver)
}

func notFound(dn model.DN, format string, args ...any) func() error {
	return func() error {
		return model.ResolutionFailure(dn, nil, "%s", fmt.Sprintf(format, args...))
	}
}
