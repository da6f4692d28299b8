package conceptx

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arushisharma17/ConceptX/leader"
)

func TestLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("Fields", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewJSONLoggerTo(&buf, slog.LevelInfo).WithMode(ModeExact).WithK(4).WithDimension(8).WithCount(100)

		l.LogStage2(ctx, "ward", 4, 10, time.Millisecond, nil)

		out := buf.String()
		assert.Contains(t, out, `"mode":"exact"`)
		assert.Contains(t, out, `"k":4`)
		assert.Contains(t, out, `"dimension":8`)
		assert.Contains(t, out, `"count":100`)
		assert.Contains(t, out, `"centroids":10`)
	})

	t.Run("ZeroThresholdWarns", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewTextLoggerTo(&buf, slog.LevelWarn)

		l.LogThreshold(ctx, 0.5, true, 0)
		assert.Empty(t, buf.String())

		l.LogThreshold(ctx, 0, true, 0)
		assert.Contains(t, buf.String(), "level=WARN")
	})

	t.Run("Errors", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewJSONLoggerTo(&buf, slog.LevelInfo)

		l.LogCliques(ctx, ModeFast, nil, 0, errors.New("boom"))
		l.LogIndexBuild(ctx, "hnsw", 10, false, 0, errors.New("boom"))

		assert.Contains(t, buf.String(), `"msg":"clique pass failed"`)
		assert.Contains(t, buf.String(), `"msg":"index build failed"`)
		assert.Contains(t, buf.String(), `"level":"ERROR"`)
	})

	t.Run("ProgressIsDebug", func(t *testing.T) {
		var buf bytes.Buffer
		NewJSONLoggerTo(&buf, slog.LevelInfo).LogCliqueProgress(ctx, leader.Progress{Cliques: 1})
		assert.Empty(t, buf.String())
	})

	t.Run("Noop", func(t *testing.T) {
		assert.NotPanics(t, func() {
			NoopLogger().LogRun(ctx, 1, 1, 0, nil)
		})
	})
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
