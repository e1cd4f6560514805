package demoup

import (
	"context"

	"github.com/giantswarm/demoup/internal/core"
)

// Compile-time interface satisfaction check.
var _ Supervisor = (*supervisorWrapper)(nil)

// supervisorWrapper wraps core.Supervisor to implement the Supervisor
// interface. The core value is a named field rather than embedded so callers
// cannot reach internal methods through type assertions.
type supervisorWrapper struct {
	sup *core.Supervisor
}

// Run wraps core.Supervisor.Run.
func (w *supervisorWrapper) Run(ctx context.Context) error {
	return w.sup.Run(ctx)
}

// Stop wraps core.Supervisor.Stop.
func (w *supervisorWrapper) Stop() error {
	return w.sup.Stop()
}

// Port wraps core.Supervisor.Port.
func (w *supervisorWrapper) Port() int {
	return w.sup.Port()
}

// State wraps core.Supervisor.State.
func (w *supervisorWrapper) State() State {
	return w.sup.State()
}

// New validates the configuration and chooses the backend port. It starts
// nothing; call Run for that. A failed port search yields an error matching
// ErrPortExhausted.
//
// Panics if any option receives an invalid value. See individual With*
// functions for constraints.
//
//nolint:ireturn // Callers depend on the Supervisor interface.
func New(opts ...Option) (Supervisor, error) {
	cfg := applyOptions(opts)
	sup, err := core.NewSupervisor(cfg.toCoreConfig())
	if err != nil {
		return nil, err
	}
	return &supervisorWrapper{sup: sup}, nil
}

// CheckEnvironment verifies that the backend command is a recent enough
// interpreter and that the required packages import, installing them from
// the backend's requirements.txt when they do not. Only the backend, root
// and runtime options are relevant; the rest are ignored.
func CheckEnvironment(ctx context.Context, opts ...Option) error {
	cfg := applyOptions(opts)
	return core.CheckEnvironment(ctx, cfg.toEnvironmentConfig())
}

// NotifyContext returns a context canceled on SIGINT or SIGTERM, with a
// cause matching ErrSignalReceived. Pass it to Run to get a graceful
// shutdown on Ctrl+C. Call stop to release the signal handler.
func NotifyContext(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return core.NotifyContext(parent, nil)
}
