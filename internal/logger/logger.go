// Package logger builds the slog logger shared by the review-forge server and
// CLI.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ServiceName tags every record written by review-forge.
const ServiceName = "review-forge"

const defaultLogFile = "review-forge.log"

// Config holds the logger configuration.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	// File is the log path used when Output is "file".
	File string `mapstructure:"file"`
}

// NewLogger builds a logger from cfg. A non-nil output overrides cfg.Output.
// When the log file cannot be opened the logger falls back to stderr.
func NewLogger(cfg Config, output io.Writer) *slog.Logger {
	if output == nil {
		w, err := openOutput(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "review-forge: %v, logging to stderr\n", err)
			w = os.Stderr
		}
		output = w
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler).With("service", ServiceName)
}

func openOutput(cfg Config) (io.Writer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		return os.Stderr, nil
	case "file":
		path := cfg.File
		if path == "" {
			path = defaultLogFile
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create log directory %s: %w", dir, err)
			}
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		return f, nil
	default:
		return os.Stdout, nil
	}
}

// parseLevel maps an unknown or empty level to info.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ForReview returns a child logger tagged with the review identifier.
func ForReview(l *slog.Logger, id string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("review_id", id)
}
