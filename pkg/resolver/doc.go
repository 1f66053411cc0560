// Package resolver implements the named source resolvers that pull values out
// of input documents.
//
// A resolver receives a Request built from a node's source descriptor and
// returns a Result: either a single value or a Stream of values. Streams are
// single-pass; once Next reports exhaustion the stream cannot be restarted, and
// callers that need the values twice must Collect them first.
//
// Resolvers are looked up by name in a Registry. NewDefaultRegistry returns a
// registry holding every built-in resolver; callers may Register their own.
//
// Every resolver is pure with respect to shared state: the input documents and
// the current context item travel in the Request, so one Registry can serve
// concurrent evaluations.
package resolver
