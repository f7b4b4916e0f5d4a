package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceLevel(t *testing.T) {
	tests := []struct {
		in    tracelog.LogLevel
		want  slog.Level
		known bool
	}{
		{in: tracelog.LogLevelTrace, want: slog.LevelDebug, known: true},
		{in: tracelog.LogLevelInfo, want: slog.LevelDebug, known: true},
		{in: tracelog.LogLevelWarn, want: slog.LevelWarn, known: true},
		{in: tracelog.LogLevelError, want: slog.LevelError, known: true},
		{in: tracelog.LogLevel(42), want: slog.LevelError, known: false},
	}

	for _, tt := range tests {
		lvl, known := traceLevel(tt.in)
		assert.Equal(t, tt.want, lvl)
		assert.Equal(t, tt.known, known)
	}
}

func TestTracerDropsArgsAndPid(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, slog.LevelDebug, "text", "/", nil)
	require.NoError(t, err)

	tracer := NewPGXTracer(l)
	tracer.Logger.Log(context.Background(), tracelog.LogLevelInfo, "Query", map[string]any{
		"sql":  `SELECT 1`,
		"args": []any{"secret"},
		"pid":  uint32(7),
	})

	out := buf.String()
	assert.Contains(t, out, "msg=Query")
	assert.Contains(t, out, "SELECT 1")
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, "pid=")
}
