// Package output provides CLI output, color handling and the text renderer
// for laid-out commit graphs.
package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// simpleHandler is a slog handler that writes plain messages without
// timestamps or level prefixes, for terminal output
type simpleHandler struct {
	writer    io.Writer
	debugMode bool
}

func (h *simpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		return h.debugMode
	}
	return true
}

func (h *simpleHandler) Handle(_ context.Context, record slog.Record) error {
	_, err := fmt.Fprintln(h.writer, record.Message)
	return err
}

func (h *simpleHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *simpleHandler) WithGroup(_ string) slog.Handler {
	return h
}

// Splog provides structured logging and output
type Splog struct {
	logger *slog.Logger
}

// NewSplog creates a splog writing to stdout. When TWIGGY_LOG_FILE is set,
// messages are additionally written to a size-rotated log file.
func NewSplog() *Splog {
	return NewSplogWithWriter(os.Stdout, os.Getenv("TWIGGY_DEBUG") != "")
}

// NewSplogWithWriter creates a splog writing to the given writer
func NewSplogWithWriter(w io.Writer, debug bool) *Splog {
	handlers := []slog.Handler{&simpleHandler{writer: w, debugMode: debug}}

	if logFile := os.Getenv("TWIGGY_LOG_FILE"); logFile != "" {
		_ = os.MkdirAll(filepath.Dir(logFile), 0o755)
		rotated := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    1, // megabytes
			MaxBackups: 2,
			MaxAge:     30, // days
		}
		handlers = append(handlers, slog.NewTextHandler(rotated, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return &Splog{logger: slog.New(&fanoutHandler{handlers: handlers})}
}

// Info writes an info message
func (s *Splog) Info(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...))
}

// Warn writes a warning message
func (s *Splog) Warn(format string, args ...any) {
	s.logger.Warn("⚠️  " + fmt.Sprintf(format, args...))
}

// Debug writes a debug message, shown only in debug mode
func (s *Splog) Debug(format string, args ...any) {
	s.logger.Debug(fmt.Sprintf(format, args...))
}

// Tip writes a tip message
func (s *Splog) Tip(format string, args ...any) {
	s.logger.Info("💡 " + fmt.Sprintf(format, args...))
}

// Page writes raw content
func (s *Splog) Page(content string) {
	s.logger.Info(content)
}

// fanoutHandler sends records to every handler that accepts the level
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}
