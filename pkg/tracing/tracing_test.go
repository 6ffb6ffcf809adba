package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpanWithoutTracer(t *testing.T) {
	SetTracer(nil)

	ctx := context.Background()
	outCtx, span := StartSpan(ctx, "batch.Orchestrator.ProcessBatch")

	require.NotNil(t, span)
	assert.Equal(t, ctx, outCtx)
	span.End()
}

func TestPropagationHelpersWithoutActiveSpan(t *testing.T) {
	SetTracer(nil)

	ctx := context.Background()
	assert.Empty(t, GetTraceParent(ctx))
	assert.Empty(t, GetTraceState(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}
