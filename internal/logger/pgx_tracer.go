package logger

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
)

// NewPGXTracer routes pgx query traces into l (slog.Default() when nil).
// Bind arguments and the backend pid are left out. Statements built by goqu
// carry their values inline, so the sql attribute still shows them.
func NewPGXTracer(l *slog.Logger) *tracelog.TraceLog {
	logger := l
	if logger == nil {
		logger = slog.Default()
	}

	return &tracelog.TraceLog{
		Logger: tracelog.LoggerFunc(func(ctx context.Context, pl tracelog.LogLevel, msg string, data map[string]any) {
			lvl, known := traceLevel(pl)
			if !logger.Enabled(ctx, lvl) {
				return
			}

			attrs := traceAttrs(data)
			if !known {
				attrs = append(attrs, slog.Any("INVALID_PGX_LOG_LEVEL", pl))
			}

			var pcs [1]uintptr
			// skip [runtime.Callers, this function, tracelog internals * 3]
			runtime.Callers(5, pcs[:])

			r := slog.NewRecord(time.Now(), lvl, msg, pcs[0])
			r.AddAttrs(attrs...)
			_ = logger.Handler().Handle(ctx, r)
		}),
		LogLevel: tracelog.LogLevelDebug,
	}
}

// traceLevel maps pgx levels onto slog; everything below warn is debug noise.
func traceLevel(l tracelog.LogLevel) (slog.Level, bool) {
	switch l {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug, tracelog.LogLevelInfo:
		return slog.LevelDebug, true
	case tracelog.LogLevelWarn:
		return slog.LevelWarn, true
	case tracelog.LogLevelError:
		return slog.LevelError, true
	}

	return slog.LevelError, false
}

func traceAttrs(data map[string]any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(data))
	for k, v := range data {
		if k == "args" || k == "pid" {
			continue
		}
		attrs = append(attrs, slog.Any(k, v))
	}

	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].Key < attrs[j].Key
	})

	return attrs
}
