package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys use the "dsm.*" namespace.
const (
	AttrModel     = "dsm.model"
	AttrMode      = "dsm.mode"
	AttrRoles     = "dsm.roles"
	AttrRunID     = "dsm.run_id"
	AttrRecords   = "dsm.records"
	AttrErrorKind = "dsm.error.kind"
	AttrErrorDN   = "dsm.error.dn"
	AttrResolver  = "dsm.resolver"
)

// EvaluationAttributes returns the attributes describing one evaluation.
func EvaluationAttributes(model, mode string, roles []string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrModel, model),
		attribute.String(AttrMode, mode),
	}
	if len(roles) > 0 {
		attrs = append(attrs, attribute.StringSlice(AttrRoles, roles))
	}
	return attrs
}

// SetRunID sets the run ID attribute on a span.
func SetRunID(span trace.Span, runID string) {
	if runID != "" {
		span.SetAttributes(attribute.String(AttrRunID, runID))
	}
}

// SetRecordCount sets the number of records an evaluation produced.
func SetRecordCount(span trace.Span, records int) {
	span.SetAttributes(attribute.Int(AttrRecords, records))
}

// SetError records err on the span and marks it failed. Kind and dn are
// omitted when empty.
func SetError(span trace.Span, err error, kind, dn string) {
	if err == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.Bool("error", true)}
	if kind != "" {
		attrs = append(attrs, attribute.String(AttrErrorKind, kind))
	}
	if dn != "" {
		attrs = append(attrs, attribute.String(AttrErrorDN, dn))
	}
	span.SetAttributes(attrs...)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetStatus sets the span status based on an error.
// If err is nil, status is set to OK, otherwise to Error.
func SetStatus(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
