// Package logging assembles structured slog loggers and formatting helpers used
// across golfr.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so every log line from one CLI
// invocation carries the same run_id. Console output colours level labels only
// when writing to a terminal. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
