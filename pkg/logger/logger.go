// Package logger provides opinionated logging capabilities for the advisor system.
//
// All components log through a *slog.Logger. The handler behind it is chosen
// by options: plain text by default, JSON for service logs, or the
// charmbracelet/log handler for colorized CLI output.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level     slog.Level
	pretty    bool
	json      bool
	source    bool
	component string
	writers   []io.Writer
}

// ComponentKey is the attribute naming the part of the system that logged.
const ComponentKey = "component"

// New creates a *slog.Logger configured by the given options.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level: slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(c)
	}

	l := slog.New(c.handler())
	if c.component != "" {
		l = l.With(ComponentKey, c.component)
	}
	return l
}

func (c *config) handler() slog.Handler {
	var w io.Writer
	switch len(c.writers) {
	case 0:
		w = os.Stdout
	case 1:
		w = c.writers[0]
	default:
		w = io.MultiWriter(c.writers...)
	}

	opts := &slog.HandlerOptions{Level: c.level, AddSource: c.source}
	switch {
	case c.json:
		return slog.NewJSONHandler(w, opts)
	case c.pretty:
		return charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
		})
	default:
		return slog.NewTextHandler(w, opts)
	}
}

func charmLevel(l slog.Level) charmlog.Level {
	switch {
	case l <= slog.LevelDebug:
		return charmlog.DebugLevel
	case l <= slog.LevelInfo:
		return charmlog.InfoLevel
	case l <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrNop returns l, or a Nop logger when l is nil.
func OrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// Component returns OrNop(l) tagged with component=name.
func Component(l *slog.Logger, name string) *slog.Logger {
	return OrNop(l).With(ComponentKey, name)
}
