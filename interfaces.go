package demoup

import "context"

// Supervisor runs one demo session.
//
// Callers must follow this lifecycle ordering:
//
//	New → Run (once) → Stop (optional, any time)
//
// Run may be called only once; later calls return ErrAlreadyStarted while
// the session runs and ErrStopped after it ended.
type Supervisor interface {
	// Run starts the session and blocks until it ends. It returns nil when
	// ctx is canceled or Stop is called. Startup failures are returned as
	// errors matching ErrAlreadyRunning, ErrBackendStart or
	// ErrBackendExited; a backend that exits on its own while the demo is
	// running also yields ErrBackendExited.
	Run(ctx context.Context) error

	// Stop ends a running session and waits until the backend is stopped.
	// It is a no-op before Run and after the session ended.
	Stop() error

	// Port returns the port chosen for the backend.
	Port() int

	// State returns the current lifecycle state.
	State() State
}
