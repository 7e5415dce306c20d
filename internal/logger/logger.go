// ABOUTME: Logging setup
// ABOUTME: Configures the global logrus logger's level, format and destination
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Options configure Setup
type Options struct {
	Level  string // logrus level name, e.g. "debug"
	Format string // "text" or "json"
	File   string // log file path; empty logs to Console only
	// Console also writes to stdout. Off while the TUI owns the terminal.
	Console bool
}

// Setup configures the global logger. The returned closer releases the log
// file and must be called on exit.
func Setup(opts Options) (io.Closer, error) {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	formatter, err := newFormatter(opts.Format)
	if err != nil {
		return nil, err
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}
	if opts.Console || opts.File == "" {
		writers = append(writers, os.Stdout)
	}

	log.SetLevel(level)
	log.SetFormatter(formatter)
	if len(writers) == 1 {
		log.SetOutput(writers[0])
	} else {
		log.SetOutput(io.MultiWriter(writers...))
	}

	return closer, nil
}

func newFormatter(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &log.TextFormatter{FullTimestamp: true}, nil
	case "json":
		return &log.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown log format %q (text, json)", format)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
