// Package logging installs the process-wide slog handler.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
)

// Options configures Setup.
type Options struct {
	// Debug lowers the level to slog.LevelDebug.
	Debug bool

	// Console receives coloured output. Defaults to os.Stderr.
	Console io.Writer

	// NoColor disables ANSI colours on Console.
	NoColor bool

	// Dir holds run.log. Empty means no file log.
	Dir string
}

// DefaultDir returns <UserConfigDir>/voxlore/logs.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, "voxlore", "logs"), nil
}

// Logger is the installed logger. Close flushes and closes the log file.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	file  *os.File
}

// Setup builds a logger from opts and makes it the slog default. A log
// file that cannot be opened is reported on the console and skipped.
func Setup(opts Options) *Logger {
	level := new(slog.LevelVar)
	if opts.Debug {
		level.Set(slog.LevelDebug)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	handlers := []slog.Handler{tint.NewHandler(console, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    opts.NoColor,
	})}

	l := &Logger{level: level}
	var openErr error
	if opts.Dir != "" {
		f, err := openLogFile(opts.Dir)
		if err != nil {
			openErr = err
		} else {
			l.file = f
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		}
	}

	l.Logger = slog.New(fanout(handlers))
	slog.SetDefault(l.Logger)
	if openErr != nil {
		l.Warn("file logging disabled", "error", openErr)
	}
	return l
}

// SetDebug switches between debug and info level at runtime.
func (l *Logger) SetDebug(debug bool) {
	if debug {
		l.level.Set(slog.LevelDebug)
	} else {
		l.level.Set(slog.LevelInfo)
	}
}

// Path returns the log file path, or "" without a file log.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "run.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// fanout sends each record to every handler.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
