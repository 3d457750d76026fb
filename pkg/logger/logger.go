// Package logger provides structured logging with context support.
package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "invoicer/internal/core/context"
)

// Logger wraps zap.SugaredLogger with context-aware logging.
type Logger struct {
	*zap.SugaredLogger
}

type loggerKey struct{}

// Config holds logger configuration.
type Config struct {
	Level       string // debug, info, warn, error
	Development bool   // console encoder with colors
	Service     string // added to every entry when set
	OutputPaths []string
}

// New creates a new Logger from configuration.
// An unknown level falls back to info.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}
	if cfg.Service != "" {
		zc.InitialFields = map[string]any{"service": cfg.Service}
	}

	zl, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{zl.Sugar()}, nil
}

var fallback atomic.Pointer[Logger]

// SetDefault installs l as the logger used when a context carries none.
func SetDefault(l *Logger) {
	fallback.Store(l)
}

// Default returns the process logger, creating a production stdout logger on first use.
func Default() *Logger {
	if l := fallback.Load(); l != nil {
		return l
	}
	zl, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		zl = zap.NewNop()
	}
	l := &Logger{zl.Sugar()}
	if fallback.CompareAndSwap(nil, l) {
		return l
	}
	return fallback.Load()
}

// WithContext adds request and user fields from ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var fields []any
	if trace := appctx.GetTrace(ctx); trace != nil {
		fields = append(fields, "trace_id", trace.TraceID, "request_id", trace.RequestID)
	}
	if user := appctx.GetUser(ctx); user != nil {
		fields = append(fields, "user_id", user.UserID)
		if user.SessionID != "" {
			fields = append(fields, "session_id", user.SessionID)
		}
	}
	if len(fields) == 0 {
		return l
	}
	return &Logger{l.SugaredLogger.With(fields...)}
}

// With adds key-value pairs to logger.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{l.SugaredLogger.With(keysAndValues...)}
}

// WithLogger adds Logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the context logger, or Default, enriched from ctx.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l.WithContext(ctx)
	}
	return Default().WithContext(ctx)
}

// Debug logs at debug level from context.
func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Debugw(msg, keysAndValues...)
}

// Info logs at info level from context.
func Info(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Infow(msg, keysAndValues...)
}

// Warn logs at warn level from context.
func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Warnw(msg, keysAndValues...)
}

// Error logs at error level from context.
func Error(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Errorw(msg, keysAndValues...)
}
