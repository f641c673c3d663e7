package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/d60-Lab/gin-social/internal/service")

func recordFailure(span trace.Span, kind Kind, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.SetStatus(codes.Error, string(kind))
}
