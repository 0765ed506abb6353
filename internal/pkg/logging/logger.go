package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// SystemTraceID is used when no distributed trace context is available.
	SystemTraceID = "system"
	// SystemSpanID is used when no distributed span context is available.
	SystemSpanID = "system"
)

// Options controls the production logger. An empty Level means info.
type Options struct {
	Service string
	Env     string
	Level   string
	// File duplicates the output to a local file when set.
	File string
}

func (o Options) config() (zap.Config, error) {
	cfg := zap.NewProductionConfig()
	// every use_case_done line is kept
	cfg.Sampling = nil
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if o.Level != "" {
		lvl, err := zapcore.ParseLevel(o.Level)
		if err != nil {
			return zap.Config{}, fmt.Errorf("parse log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	if o.File != "" {
		if err := touch(o.File); err != nil {
			return zap.Config{}, fmt.Errorf("prepare log file: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, o.File)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, o.File)
	}

	enc := &cfg.EncoderConfig
	enc.TimeKey = "ts"
	enc.MessageKey = "msg"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeLevel = zapcore.LowercaseLevelEncoder

	cfg.InitialFields = map[string]any{
		"service": o.Service,
		"env":     o.Env,
	}
	return cfg, nil
}

// NewLogger builds a JSON zap logger on stdout with service and env on every
// entry.
func NewLogger(opts Options) (*zap.Logger, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

// MustNewLogger is like NewLogger but panics if the logger cannot be created.
func MustNewLogger(opts Options) *zap.Logger {
	logger, err := NewLogger(opts)
	if err != nil {
		panic(err)
	}
	return logger
}

// WithTrace returns a logger enriched with trace and span identifiers.
// Empty ids become "unknown" so the fields are always present.
func WithTrace(logger *zap.Logger, traceID, spanID string) *zap.Logger {
	if logger == nil {
		logger = zap.L()
	}
	return logger.With(
		zap.String("trace_id", orUnknown(traceID)),
		zap.String("span_id", orUnknown(spanID)),
	)
}

// System tags process-level logs (startup, shutdown) that belong to no request.
func System(logger *zap.Logger) *zap.Logger {
	return WithTrace(logger, SystemTraceID, SystemSpanID)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
