package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerLevel(t *testing.T) {
	l, err := NewLogger(Options{Service: "order-service", Env: "test", Level: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewLoggerCreatesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := NewLogger(Options{Service: "order-service", File: path})
	require.NoError(t, err)
	l.Info("hello")
	_ = l.Sync()
	assert.FileExists(t, path)
}

func TestSystemLoggerCarriesReservedTraceIDs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	System(zap.New(core)).Info("http_server_start")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, SystemTraceID, fields["trace_id"])
	assert.Equal(t, SystemSpanID, fields["span_id"])
}

func TestWithTraceFillsUnknown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	WithTrace(zap.New(core), "", "abc").Info("x")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "unknown", fields["trace_id"])
	assert.Equal(t, "abc", fields["span_id"])
}
