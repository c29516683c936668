// Package logging builds the slog loggers used across the server. Output
// always goes to stderr by default because stdout carries the MCP stream.
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Custom levels, compatible with slog.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelFatal = slog.Level(12)
)

var levelNames = map[slog.Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// Factory creates component loggers sharing one handler.
type Factory struct {
	handler slog.Handler
}

// NewFactory returns a Factory writing to w (stderr when nil) at level, in
// "json" or "text" format.
func NewFactory(w io.Writer, level slog.Level, format string) *Factory {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: customizeLogLevels,
	}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Factory{handler: handler}
}

// Logger returns a logger tagged with the component name.
func (f *Factory) Logger(component string) *slog.Logger {
	return slog.New(f.handler).With("component", component)
}

// StdLogger adapts the factory for libraries that want a *log.Logger.
func (f *Factory) StdLogger(component string, level slog.Level) *log.Logger {
	return slog.NewLogLogger(f.handler.WithAttrs([]slog.Attr{slog.String("component", component)}), level)
}

// ParseLevel accepts trace, debug, info, warn(ing), error and fatal.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func customizeLogLevels(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		if name, ok := levelNames[level]; ok {
			return slog.Attr{Key: a.Key, Value: slog.StringValue(name)}
		}
	}
	return a
}
