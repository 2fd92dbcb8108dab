package tracing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartRun(context.Background(), "pipeline.run", "run-1")
	assert.Same(t, root, SpanFromContext(ctx))

	childCtx, invert := StartChildSpan(ctx, "invert")
	invert.SetAttr("terms", 42)
	invert.End(nil)
	_, index := StartChildSpan(ctx, "index")
	index.End(errors.New("boom"))
	root.End(nil)

	require.Len(t, root.Children, 2)
	assert.Equal(t, "run-1", invert.RunID)
	assert.Same(t, invert, SpanFromContext(childCtx))
	assert.Equal(t, 42, invert.Attrs["terms"])
	assert.EqualError(t, index.Err, "boom")
}

func TestDetachedSpan(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "orphan")
	assert.Empty(t, span.RunID)
	assert.Nil(t, SpanFromContext(context.Background()))
}

func TestLogWalksDepthFirst(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	ctx, root := StartRun(context.Background(), "pipeline.run", "run-7")
	_, a := StartChildSpan(ctx, "queries")
	a.End(nil)
	_, b := StartChildSpan(ctx, "search")
	b.End(errors.New("cancelled"))
	root.End(nil)
	root.Log(log)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "span=pipeline.run")
	assert.Contains(t, lines[0], "depth=0")
	assert.Contains(t, lines[1], "span=queries")
	assert.Contains(t, lines[1], "depth=1")
	assert.Contains(t, lines[2], "level=ERROR")
	assert.Contains(t, lines[2], "error=cancelled")
	for _, l := range lines {
		assert.Contains(t, l, "run_id=run-7")
		assert.Contains(t, l, "component=tracing")
	}
}
