// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adityanavgire01/walkie-talkie/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where log lines go.
type Options struct {
	// Verbose: 0=info, 1=debug, 2+=debug with source locations.
	Verbose int
	// FileOnly routes everything to the rotating file. The TUI owns the
	// terminal while it runs, so stderr output would corrupt the screen.
	FileOnly bool
	// Console receives log lines when FileOnly is false. Defaults to stderr.
	Console io.Writer
}

// Setup installs the default slog logger and returns a function that flushes
// and closes the rotating log file.
func Setup(cfg config.LogConfig, opts Options) func() error {
	level := slog.LevelInfo
	if opts.Verbose >= 1 {
		level = slog.LevelDebug
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var rotator *lumberjack.Logger
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err == nil {
			rotator = &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
		}
	}

	var w io.Writer
	switch {
	case opts.FileOnly && rotator != nil:
		w = rotator
	case opts.FileOnly:
		w = io.Discard
	case rotator != nil:
		w = io.MultiWriter(console, rotator)
	default:
		w = console
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: opts.Verbose >= 2,
	})
	slog.SetDefault(slog.New(handler))

	return func() error {
		if rotator == nil {
			return nil
		}
		return rotator.Close()
	}
}
