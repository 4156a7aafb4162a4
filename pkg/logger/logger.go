// Package logger provides standardized logging setup for goperon tools
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sandrolain/goperon/pkg/config"
)

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Format    string // "text" or "json"
	Output    io.Writer
	AddSource bool
	LogFile   string
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// FromSettings converts the logging section of a goperon config file.
// stdout and stderr are the streams "stdout" and "stderr" refer to.
func FromSettings(s config.LoggingConfig, stdout, stderr io.Writer) (Config, error) {
	cfg := DefaultConfig()
	level, err := ParseLevel(s.Level)
	if err != nil {
		return cfg, err
	}
	cfg.Level = level
	if s.Format != "" {
		cfg.Format = s.Format
	}
	switch s.Output {
	case "", "stderr":
		cfg.Output = stderr
	case "stdout":
		cfg.Output = stdout
	default:
		cfg.LogFile = s.Output
	}
	return cfg, nil
}

// ParseLevel maps a level name to a slog level. An empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// New builds a logger. The returned close func releases the log file, if
// one was opened.
func New(cfg Config) (*slog.Logger, func() error, error) {
	output := cfg.Output
	closeFn := func() error { return nil }
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		output = file
		closeFn = file.Close
	}
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler), closeFn, nil
}

// Init builds a logger and installs it as the slog default
func Init(cfg Config) (*slog.Logger, func() error, error) {
	l, closeFn, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(l)
	return l, closeFn, nil
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
