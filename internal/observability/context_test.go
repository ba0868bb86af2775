package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/davidbz/linguist/internal/observability"
)

func TestFromContext(t *testing.T) {
	t.Run("should attach context identifiers as fields", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		observability.SetLogger(zap.New(core))
		t.Cleanup(func() { observability.SetLogger(zap.NewNop()) })

		ctx := context.Background()
		ctx = observability.WithTraceID(ctx, "trace-1")
		ctx = observability.WithCallerID(ctx, "u1")
		ctx = observability.WithConversation(ctx, "c1")
		ctx = observability.WithReportID(ctx, "r1")

		observability.FromContext(ctx).Info("hello")

		entries := logs.All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		require.Equal(t, "trace-1", fields["trace_id"])
		require.Equal(t, "u1", fields["caller_id"])
		require.Equal(t, "c1", fields["conversation"])
		require.Equal(t, "r1", fields["report_id"])
		require.NotContains(t, fields, "provider")
	})

	t.Run("should generate distinct identifiers", func(t *testing.T) {
		require.NotEqual(t, observability.GenerateTraceID(), observability.GenerateTraceID())
		require.NotEmpty(t, observability.GenerateRequestID())
	})
}
