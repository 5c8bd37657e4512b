// Package logger is a thin wrapper around slog for the CLI side.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the global logger instance.
var Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

// Configure replaces the global logger. Verbose enables debug records.
func Configure(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
