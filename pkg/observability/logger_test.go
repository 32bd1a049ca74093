package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/csnsports/csn-admin/pkg/contextkeys"
)

func TestNewLogger(t *testing.T) {
	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger("info", FormatJSON, &buf)
		require.NoError(t, err)

		logger.WithField("role", "Content Manager").Info("role resolved")

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "role resolved", line["msg"])
		assert.Equal(t, "Content Manager", line["role"])
		assert.Equal(t, "info", line["level"])
	})

	t.Run("text output", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger("debug", FormatText, &buf)
		require.NoError(t, err)

		logger.Debug("bypass check")
		assert.Contains(t, buf.String(), "bypass check")
		assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger("warn", FormatJSON, &buf)
		require.NoError(t, err)

		logger.Info("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewLogger("verbose", FormatJSON, nil)
		assert.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := NewLogger("info", "xml", nil)
		assert.Error(t, err)
	})
}

func TestFromContext(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	ctx := WithLogger(context.Background(), logger)
	ctx = contextkeys.WithRequestID(ctx, "req-9")
	ctx = contextkeys.WithUserID(ctx, "user_1")

	FromContext(ctx).Info("handled")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "req-9", entry.Data["request_id"])
	assert.Equal(t, "user_1", entry.Data["user_id"])
}

func TestFromContext_Defaults(t *testing.T) {
	assert.Equal(t, logrus.StandardLogger(), GetLogger(context.Background()))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestRecoverPanic(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	assert.NotPanics(t, func() {
		defer RecoverPanic(logger, "test operation")
		panic("boom")
	})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "boom", entry.Data["panic"])
	assert.Equal(t, "test operation", entry.Data["context"])
}

func TestRecoverPanicWithCallback(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	var got interface{}
	func() {
		defer RecoverPanicWithCallback(logger, "worker", func(r interface{}) { got = r })
		panic("worker failed")
	}()
	assert.Equal(t, "worker failed", got)

	called := false
	func() {
		defer RecoverPanicWithCallback(logger, "worker", func(interface{}) { called = true })
	}()
	assert.False(t, called)
}

func TestWithTraceContext(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	WithTraceContext(context.Background(), logger).Info("no span")
	assert.NotContains(t, hook.LastEntry().Data, "trace_id")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	WithTraceContext(ctx, logger).Info("with span")
	entry := hook.LastEntry()
	assert.Equal(t, span.SpanContext().TraceID().String(), entry.Data["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry.Data["span_id"])
}
