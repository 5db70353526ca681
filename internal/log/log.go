// Package log configures structured logging for buildsignal using log/slog.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options controls the default logger.
type Options struct {
	Verbose bool
	Quiet   bool
	// Format is FormatText (default) or FormatJSON.
	Format string
	// Writer defaults to stderr. The MCP server relies on this: stdout carries
	// the protocol stream.
	Writer io.Writer
}

// Level maps the verbosity flags to a slog level. Quiet wins over verbose.
//
//   - quiet mode:   only WARN and ERROR messages
//   - normal mode:  INFO and above
//   - verbose mode: DEBUG and above
func (o Options) Level() slog.Level {
	switch {
	case o.Quiet:
		return slog.LevelWarn
	case o.Verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Setup installs the default slog logger.
func Setup(opts Options) error {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: opts.Level()}

	var handler slog.Handler
	switch opts.Format {
	case "", FormatText:
		handler = slog.NewTextHandler(w, hopts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, hopts)
	default:
		return fmt.Errorf("unknown log format %q (valid: text, json)", opts.Format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
