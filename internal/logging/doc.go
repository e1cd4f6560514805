// Package logging builds the launcher's process-wide slog logger: console
// output plus a size-rotated log file.
package logging
