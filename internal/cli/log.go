package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/natefinch/lumberjack"

	"github.com/matzehuels/pangraph/pkg/config"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// newFileLogger returns a logger writing to both w and a rotating log file.
// The level from cfg wins over level when it is more verbose. The returned
// closer releases the file.
func newFileLogger(w io.Writer, level log.Level, cfg config.LoggingConfig) (*log.Logger, io.Closer) {
	file := &lumberjack.Logger{
		Filename: cfg.File,
		MaxSize:  cfg.MaxSize,
		MaxAge:   cfg.MaxAge,
	}
	if l, err := log.ParseLevel(cfg.Level); err == nil && l < level {
		level = l
	}
	return newLogger(io.MultiWriter(w, file), level), file
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Collapsed 42 bubbles (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
