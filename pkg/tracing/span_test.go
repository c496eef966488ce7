package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildSpansInheritRunID(t *testing.T) {
	ctx, root := Start(context.Background(), "run", "aol-bl-a")
	replayCtx, replay := Child(ctx, "replay")
	_, inner := Child(replayCtx, "side-channel")
	_, drain := Child(ctx, "drain")

	assert.Same(t, replay, FromContext(replayCtx))
	assert.Equal(t, "aol-bl-a", inner.RunID)
	require.Len(t, root.Children(), 2)
	assert.Same(t, drain, root.Children()[1])
	assert.Len(t, replay.Children(), 1)
}

func TestChildWithoutParent(t *testing.T) {
	ctx, s := Child(context.Background(), "orphan")
	assert.Same(t, s, FromContext(ctx))
	assert.Empty(t, s.RunID)
	assert.Nil(t, FromContext(context.Background()))
}

func TestLogWritesTreeDepthFirst(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx, root := Start(context.Background(), "run", "r1")
	_, replay := Child(ctx, "replay")
	replay.SetAttr("queries", 42)
	replay.End()
	root.End()
	root.Log(logger)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "span=run")
	assert.Contains(t, lines[0], "depth=0")
	assert.Contains(t, lines[1], "span=replay")
	assert.Contains(t, lines[1], "depth=1")
	assert.Contains(t, lines[1], "queries=42")
}
