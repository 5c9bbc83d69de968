package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func bufferLogger(buf *bytes.Buffer) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{MessageKey: "msg"}),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestWithContext(t *testing.T) {
	logger := zap.NewExample()
	ctx := WithContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestFromContext_NotFound(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestContextChaining(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	ctx, logger = WithProjectID(ctx, logger, "project-1")
	ctx, logger = WithUserID(ctx, logger, "user-1")

	assert.Equal(t, "project-1", GetProjectID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Same(t, logger, FromContext(ctx))
}

func TestGetters_NotFound(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetProjectID(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetTraceID(ctx))
}

func TestGetTraceID(t *testing.T) {
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(spanContext(t)))
}

func TestFor(t *testing.T) {
	var buf bytes.Buffer
	ctx := spanContext(t)
	ctx = context.WithValue(ctx, ProjectIDKey, "project-9")

	For(ctx, bufferLogger(&buf)).Info("snapshot calculated")

	var output map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, "snapshot calculated", output["msg"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", output["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", output["span_id"])
	assert.Equal(t, "project-9", output["project_id"])
	assert.NotContains(t, output, "user_id")
}

func TestFor_NilBase(t *testing.T) {
	assert.NotPanics(t, func() {
		For(context.Background(), nil).Info("ignored")
	})
}
