package conceptx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/arushisharma17/ConceptX/leader"
)

// Logger wraps slog.Logger with conceptx-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewJSONLoggerTo(os.Stderr, level)
}

// NewJSONLoggerTo is NewJSONLogger writing to w.
func NewJSONLoggerTo(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewTextLoggerTo(os.Stderr, level)
}

// NewTextLoggerTo is NewTextLogger writing to w.
func NewTextLoggerTo(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// ParseLevel parses "debug", "info", "warn" or "error".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, s)
	}
	return level, nil
}

// WithMode adds a mode field to the logger.
func (l *Logger) WithMode(mode Mode) *Logger {
	return &Logger{
		Logger: l.Logger.With("mode", string(mode)),
	}
}

// WithK adds a k (cluster count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogIndexBuild logs the construction or loading of a neighbour index.
func (l *Logger) LogIndexBuild(ctx context.Context, kind string, points int, reused bool, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"type", kind,
			"points", points,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index ready",
		"type", kind,
		"points", points,
		"reused", reused,
		"duration", duration,
	)
}

// LogThreshold logs the threshold used by the clique pass.
func (l *Logger) LogThreshold(ctx context.Context, tau float64, estimated bool, duration time.Duration) {
	if estimated && tau == 0 {
		l.WarnContext(ctx, "estimated threshold is zero, every point becomes its own clique",
			"tau", tau,
			"duration", duration,
		)
		return
	}
	l.InfoContext(ctx, "threshold",
		"tau", tau,
		"estimated", estimated,
		"duration", duration,
	)
}

// LogCliqueProgress logs a throttled progress report of the clique pass.
func (l *Logger) LogCliqueProgress(ctx context.Context, p leader.Progress) {
	l.DebugContext(ctx, "building cliques",
		"cliques", p.Cliques,
		"processed", p.Processed,
		"points", p.Points,
	)
}

// LogCliques logs the outcome of the clique pass.
func (l *Logger) LogCliques(ctx context.Context, mode Mode, p *leader.Partition, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clique pass failed",
			"mode", string(mode),
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "clique pass completed",
		"mode", string(mode),
		"points", p.N,
		"cliques", p.Len(),
		"queries", p.Queries,
		"expansions", p.Expansions,
		"duration", duration,
	)
}

// LogStage2 logs the clustering of clique centroids.
func (l *Logger) LogStage2(ctx context.Context, algorithm string, k, centroids int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "centroid clustering failed",
			"algorithm", algorithm,
			"k", k,
			"centroids", centroids,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "centroid clustering completed",
		"algorithm", algorithm,
		"k", k,
		"centroids", centroids,
		"duration", duration,
	)
}

// LogRun logs the end of a clustering run.
func (l *Logger) LogRun(ctx context.Context, points, k int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clustering failed",
			"points", points,
			"k", k,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "clustering completed",
		"points", points,
		"k", k,
		"duration", duration,
	)
}
