package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Console sinks. Tests swap them for pipes.
var (
	osStdout io.Writer = os.Stdout
	osStderr io.Writer = os.Stderr
)

// SlogManager owns the process logger.
type SlogManager struct {
	logger *slog.Logger
}

func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(lvl slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// Setup points the logger at file, or at stdout without one. With a file,
// errors are also mirrored to stderr so a failed save is never silent.
// Every record carries the process id; several runs share one daily file.
func (m *SlogManager) Setup(file io.Writer, level string) {
	lvl := parseLevel(level)
	opts := handlerOptions(lvl)

	var sinks []Sink
	if file != nil {
		sinks = append(sinks,
			Sink{Handler: slog.NewTextHandler(file, opts), Min: lvl},
			Sink{Handler: slog.NewTextHandler(osStderr, opts), Min: slog.LevelError},
		)
	} else {
		sinks = append(sinks, Sink{Handler: slog.NewTextHandler(osStdout, opts), Min: lvl})
	}

	m.logger = slog.New(NewFanout(sinks...)).With("pid", os.Getpid())
	m.logger.Debug("Logging initialized", "level", level)
}

// Attach stamps every later record with the working set current returns.
// Loggers handed out before the call are unaffected.
func (m *SlogManager) Attach(current WorkingSetFunc) {
	if m.logger == nil || current == nil {
		return
	}
	m.logger = slog.New(NewWorkingSetHandler(m.logger.Handler(), current))
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// WriteLog records message against an operator command at the named level.
func (m *SlogManager) WriteLog(command, message, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), parseLevel(level), message, "command", command)
}
