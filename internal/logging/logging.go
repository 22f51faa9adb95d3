// Package logging configures structured JSON logging for ripplecalc
// processes.
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where logs go and how verbose they are.
type Options struct {
	Level string
	// File, when set, receives the logs through a rotating writer in
	// addition to Stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Quiet drops the Stderr copy.
	Quiet bool
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// Setup builds the process logger, installs it as the slog default and
// bridges the standard library logger onto it. The returned closer
// releases the log file.
func Setup(service string, opts Options) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if opts.Level != "" {
		var err error
		if level, err = ParseLevel(opts.Level); err != nil {
			return nil, nil, err
		}
	}

	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		writers = append(writers, rotating)
		closer = rotating
	}
	out := io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}

	handler := NewHandler(out, level)
	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	base := slog.New(handler.WithAttrs(attrs))
	slog.SetDefault(base)

	bridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	bridge.SetFlags(0)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base, closer, nil
}

// NewHandler returns the JSON handler used by Setup: timestamp, severity
// and message keys, upper-case levels.
func NewHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
