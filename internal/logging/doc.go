// Package logging assembles structured slog loggers and formatting helpers used
// across segskip.
//
// It owns the console/JSON handlers and the output plumbing. Context-aware
// helpers tag log lines with session and video identifiers so that playback
// events from several players can be told apart. A no-op logger is provided
// for tests and wiring code that cannot fail.
package logging
