// Package logging assembles structured slog loggers and formatting helpers used
// across birdtriage.
//
// It owns the configurable console/JSON handlers, the per-session log file that
// mirrors everything a review session logs, and context helpers that tag lines
// with the session identifier and category. A no-op logger is provided for
// tests and wiring code that cannot fail.
package logging
