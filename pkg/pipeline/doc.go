// Package pipeline applies the per-item filter and postformat steps that sit
// between a resolver and the evaluators.
//
// A filter decides whether a streamed item is admitted; the default filter
// admits everything. A postformat transforms a value; the default is the
// identity. Transform failures are fatal unless the postformat carries
// "fail-silent" (the raw item is kept) or a "default" (the literal is used).
package pipeline
