// Package logging builds the slog loggers used across av1ify. Console
// output uses a compact single-line format with optional ANSI color when
// stdout is a terminal; JSON output is available for machine consumption.
// All log lines carry a component attribute identifying the subsystem.
package logging
