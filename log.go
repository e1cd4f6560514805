package demoup

import (
	"log/slog"

	"github.com/giantswarm/demoup/internal/core"
)

// SetLogger replaces the package-level logger used by demoup. Subsystems
// derive child loggers from it with a "subsystem" attribute.
//
// If l is nil, the logger resets to the default: slog.Default() with a
// "component" attribute, re-derived on the next use and then cached. Call
// SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// SetLogger is safe to call concurrently, but a running Supervisor keeps the
// logger it was created with.
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
