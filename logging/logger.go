// Package logging wraps slog with a console handler, a rotating JSON file
// handler and package-level helpers usable before initialization.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls how Init builds the default logger
type Options struct {
	Dir            string // empty disables file logging
	Level          string
	RetentionWeeks int
	MaxFileSize    int64
	Console        io.Writer
}

type LoggingService struct {
	Logger *slog.Logger
	writer *RotatingWriter
}

var DefaultLoggingService *LoggingService

// Init builds the global logger and installs it as the slog default
func Init(opts Options) *LoggingService {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	level := ParseLevel(opts.Level)

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}),
	}

	service := &LoggingService{}
	if opts.Dir != "" {
		retention := opts.RetentionWeeks
		if retention <= 0 {
			retention = 4
		}
		writer, err := NewRotatingWriter(opts.Dir, retention, opts.MaxFileSize)
		if err != nil {
			slog.New(handlers[0]).Error("File logging disabled", "error", err)
		} else {
			service.writer = writer
			// The file always records debug, the console honours the configured level
			handlers = append(handlers, slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
	}

	if len(handlers) == 1 {
		service.Logger = slog.New(handlers[0])
	} else {
		service.Logger = slog.New(&multiHandler{handlers: handlers})
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
	return service
}

// Close releases the log file, if any
func (s *LoggingService) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger returns the global logger or a stderr fallback when Init was not called
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// multiHandler fans a record out to every handler that accepts its level
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
