// Package logger provides structured logging for keva.
//
// It configures log/slog with JSON or text output and a process-wide
// level that can be changed at runtime, which the server uses when the
// configuration file is edited while running.
package logger
