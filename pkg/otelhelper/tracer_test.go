package otelhelper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestEnd(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, ok := StartSpan(t.Context(), tracer, "template.override",
		attribute.String(TemplateIDKey, "v1"))
	End(ok, nil)

	_, failed := StartSpan(t.Context(), tracer, "recipe.instantiate")
	End(failed, errors.New("blacklisted"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "template.override", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String(TemplateIDKey, "v1"))

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "blacklisted", spans[1].Status().Description)
}

func TestNoopTracer(t *testing.T) {
	_, span := StartSpan(t.Context(), NoopTracer(), "noop")
	assert.False(t, span.IsRecording())
	End(span, errors.New("ignored"))
}
