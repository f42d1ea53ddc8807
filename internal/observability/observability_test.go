package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covid-dashboard/internal/config"
)

func TestNewLoggerTo(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "warn", Format: "json"})
		logger.Info("hidden")
		logger.Warn("shown", "rows", 3)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "shown", entry["msg"])
		assert.EqualValues(t, 3, entry["rows"])
		assert.Contains(t, entry, "source")
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		NewLoggerTo(&buf, config.LoggerConfig{Level: "DEBUG", Format: "text"}).Debug("loaded")
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "msg=loaded")
	})
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Equal(t, "req-7", GetRequestID(WithRequestID(context.Background(), "req-7")))
}

func TestSpans(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx, parent := StartSpan(WithRequestID(context.Background(), "req-1"), "dataset.load")
	_, child := StartSpan(ctx, "dataset.decode")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.Same(t, parent, GetSpan(ctx))

	child.SetTag("rows", "42")
	child.SetError(errors.New("bad row"))
	child.Finish()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "span finished", entry["msg"])
	assert.Equal(t, "dataset.decode", entry["operation"])
	assert.Equal(t, "ERROR", entry["status"])
	assert.Equal(t, "bad row", entry["error"])
	assert.Equal(t, "42", entry["rows"])
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestGetSpanWithoutSpan(t *testing.T) {
	assert.Nil(t, GetSpan(context.Background()))
}

func TestMetricsForTestingAreIndependent(t *testing.T) {
	a, b := NewMetricsForTesting(), NewMetricsForTesting()
	a.DatasetLoads.WithLabelValues("remote").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.DatasetLoads.WithLabelValues("remote")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DatasetLoads.WithLabelValues("remote")))
	assert.Len(t, a.collectors(), 9)
}
