package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError records err on the span and marks its status failed.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(attrs...))
}

// AgencyAttr tags a span with the tenant it operates on.
func AgencyAttr(agencyID string) attribute.KeyValue {
	return attribute.String(AgencyIDKey, agencyID)
}

// JobAttr tags a span with the scheduled job being run.
func JobAttr(name string) attribute.KeyValue {
	return attribute.String(JobNameKey, name)
}
