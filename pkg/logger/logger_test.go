package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "invoicer/internal/core/context"
)

func TestFromContext_AddsTraceAndUser(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := &Logger{zap.New(core).Sugar()}

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-1"})
	ctx = WithLogger(ctx, base)

	Info(ctx, "sale created", "number", "INV-00001")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "t-1", fields["trace_id"])
		assert.Equal(t, "r-1", fields["request_id"])
		assert.Equal(t, "u-1", fields["user_id"])
		assert.Equal(t, "INV-00001", fields["number"])
	}
}

func TestNew_FallsBackToInfoLevel(t *testing.T) {
	l, err := New(Config{Level: "nonsense", OutputPaths: []string{"stdout"}})
	assert.NoError(t, err)
	assert.NotNil(t, l)
}

func TestFromContext_UsesInstalledDefault(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := Default()
	SetDefault(&Logger{zap.New(core).Sugar()})
	t.Cleanup(func() { SetDefault(prev) })

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-2", SessionID: "s-9"})
	Warn(ctx, "refresh token reused")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "u-2", fields["user_id"])
		assert.Equal(t, "s-9", fields["session_id"])
	}
}

func TestWithContext_NoFieldsReturnsSameLogger(t *testing.T) {
	l := &Logger{zap.NewNop().Sugar()}
	assert.Same(t, l, l.WithContext(context.Background()))
}
