// Package utils provides shared helpers for logging and text.
package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewNopLogger returns a logger that discards everything. Used by tests and by
// commands that print their own output and only need a logger to satisfy options.
func NewNopLogger() *zap.Logger {
	return zap.NewNop()
}
