package engy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the package logger, used by code that has no Context at
// hand (resource loading, debug checks).
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger sets the package logger. By default engy produces no log output.
// An App never changes it; it logs through its own logger and hands that to
// its Context and ResourceManager. Pass nil to restore the silent default.
//
// Log levels used by engy:
//   - [slog.LevelDebug]: resource loads, per-frame timings in debug mode
//   - [slog.LevelInfo]: lifecycle transitions, screenshots written
//   - [slog.LevelWarn]: tree-shape warnings, dropped screenshots
//   - [slog.LevelError]: fatal phase errors
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// NewLogger builds an application logger from cfg: a text handler on w at
// cfg.LogLevel, tagged with the app name. Record times are replaced by the
// time elapsed since startup as reported by elapsed. When cfg.LogFile is set
// the output is also appended to that file; the returned Closer closes it.
func NewLogger(cfg Config, w io.Writer, elapsed func() time.Duration) (*slog.Logger, io.Closer, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var closer io.Closer = nopCloser{}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(w, f)
		closer = f
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 && elapsed != nil {
				return slog.String(slog.TimeKey, FormatElapsed(elapsed()))
			}
			return a
		},
	})
	return slog.New(h).With("app", cfg.Name), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FormatElapsed renders d as HH:MM:SS.mmm. Hours keep counting past 24.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
