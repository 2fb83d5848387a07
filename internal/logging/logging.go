// Package logging builds the leveled structured logger used by the server.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"taskdash/internal/config"
)

// Prefix is prepended to every log line.
const Prefix = "taskdash"

// New creates a logger writing to w with the level and formatter from cfg.
// cfg.Debug forces the debug level.
func New(w io.Writer, cfg *config.Config) *log.Logger {
	level := ParseLevel(cfg.Log.Level)
	if cfg.Debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       ParseFormatter(cfg.Log.Format),
		ReportTimestamp: true,
		Prefix:          Prefix,
	})
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// ParseLevel parses a level name. Unknown names fall back to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter parses a formatter name. Unknown names fall back to text.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
