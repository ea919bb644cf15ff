package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// romdbHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
type romdbHandler struct {
	w     io.Writer
	runID string
	attrs []slog.Attr
}

func (h *romdbHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *romdbHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, r.Level.String(), h.runID, r.Message)
	if err != nil {
		return err
	}

	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func (h *romdbHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &romdbHandler{
		w:     h.w,
		runID: h.runID,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *romdbHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger writing to stderr and, when
// logDir is non-empty, to logDir/romdb.log as well. It returns the
// logger and the open log file (nil when logging to stderr only).
func newLogger(logDir, runID string) (*slog.Logger, *os.File, error) {
	var w io.Writer = os.Stderr
	var f *os.File
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		file, err := os.OpenFile(filepath.Join(logDir, "romdb.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		f = file
		w = io.MultiWriter(file, os.Stderr)
	}

	return slog.New(&romdbHandler{w: w, runID: runID}), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the romdb.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
