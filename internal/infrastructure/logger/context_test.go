package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// spanContext returns a context carrying a real recording span so trace
// correlation fields are populated.
func spanContext(t *testing.T) context.Context {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "integration.sync_products")
	t.Cleanup(func() { span.End() })
	return ctx
}

func TestWithContext_RoundTrip(t *testing.T) {
	base := zap.NewNop()
	ctx := WithContext(context.Background(), base)
	assert.Same(t, base, FromContext(ctx))
}

func TestFromContext_EmptyContextFallsBackToNop(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)
	assert.NotPanics(t, func() { log.Info("dropped") })
}

func TestWithRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, enriched := WithRequestID(context.Background(), zap.New(core), "req-77")

	assert.Equal(t, "req-77", GetRequestID(ctx))
	assert.Same(t, enriched, FromContext(ctx))

	enriched.Info("Product sync started")
	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-77", entries[0].ContextMap()["request_id"])
}

func TestWithShopIDAndUserID_Stack(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, log := WithShopID(context.Background(), zap.New(core), "shop-3")
	ctx, log = WithUserID(ctx, log, "owner-9")

	assert.Equal(t, "shop-3", GetShopID(ctx))
	assert.Equal(t, "owner-9", GetUserID(ctx))

	log.Info("Campaign scheduled")
	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "shop-3", fields["shop_id"])
	assert.Equal(t, "owner-9", fields["user_id"])
}

func TestGetters_MissingValuesAreEmpty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetShopID(ctx))
	assert.Empty(t, GetUserID(ctx))
}

func TestWithTraceContext_AttachesTraceAndSpanIDs(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := spanContext(t)

	WithTraceContext(ctx, zap.New(core)).Info("Restock strategy computed")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Len(t, fields["trace_id"], 32)
	assert.Len(t, fields["span_id"], 16)
}

func TestWithTraceContext_NoSpanLeavesLoggerUnchanged(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, WithTraceContext(context.Background(), base))
}
