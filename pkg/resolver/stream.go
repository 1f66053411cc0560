package resolver

import (
	"mercator-hq/dsm/pkg/docpath"
	"mercator-hq/dsm/pkg/model"
)

// Stream is a single-pass sequence of resolved values.
//
// Next returns the next value and true, or false once the stream is
// exhausted. A non-nil error terminates the stream.
type Stream interface {
	Next() (any, bool, error)
}

// sliceStream yields the elements of a slice.
type sliceStream struct {
	items []any
	pos   int
}

// FromSlice returns a stream over items.
func FromSlice(items []any) Stream {
	return &sliceStream{items: items}
}

// Empty returns an exhausted stream.
func Empty() Stream {
	return &sliceStream{}
}

func (s *sliceStream) Next() (any, bool, error) {
	if s.pos >= len(s.items) {
		return nil, false, nil
	}
	v := s.items[s.pos]
	s.pos++
	return v, true, nil
}

// StreamFunc adapts a generator function to the Stream interface.
type StreamFunc func() (any, bool, error)

// Next calls f.
func (f StreamFunc) Next() (any, bool, error) {
	return f()
}

// Collect drains s into a slice.
func Collect(s Stream) ([]any, error) {
	out := make([]any, 0)
	for {
		v, ok, err := s.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Result is the outcome of a resolver call: a single value or a stream.
type Result struct {
	value  any
	stream Stream
}

// Value returns a single-valued result.
func Value(v any) Result {
	return Result{value: v}
}

// Multi returns a multi-valued result.
func Multi(s Stream) Result {
	if s == nil {
		s = Empty()
	}
	return Result{stream: s}
}

// IsMulti reports whether the result is a stream.
func (r Result) IsMulti() bool {
	return r.stream != nil
}

// Single returns the result as one value. A stream is drained into a slice.
func (r Result) Single() (any, error) {
	if r.stream == nil {
		return r.value, nil
	}
	return Collect(r.stream)
}

// Iter returns the result as a stream. A single value must be a collection;
// its elements are streamed (sorted keys for a mapping). Anything else,
// including nil, is a resolution failure at dn.
func (r Result) Iter(dn model.DN) (Stream, error) {
	if r.stream != nil {
		return r.stream, nil
	}
	elems, ok := docpath.Elements(r.value)
	if !ok {
		return nil, model.ResolutionFailure(dn, nil, "value of type %T is not iterable", r.value)
	}
	return FromSlice(elems), nil
}
