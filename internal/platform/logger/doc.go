// Package logger provides structured logging functionality for the application
// using Go's standard library log/slog package: JSON output at a configured
// level, and carrying a request-scoped logger through a context.Context.
package logger
