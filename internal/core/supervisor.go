package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/giantswarm/demoup/internal/backend"
	"github.com/giantswarm/demoup/internal/frontend"
	"github.com/giantswarm/demoup/internal/netutil"
	"github.com/giantswarm/demoup/internal/process"
	"github.com/giantswarm/demoup/internal/reaper"
	"github.com/giantswarm/demoup/internal/runlock"
	"github.com/giantswarm/demoup/internal/sentinel"
)

// ErrAlreadyStarted is returned by Run when the Supervisor is already running.
const ErrAlreadyStarted = sentinel.Error("supervisor already started")

// ErrStopped is returned by Run when the Supervisor has already finished.
const ErrStopped = sentinel.Error("supervisor stopped")

// ErrBackendStart wraps the reason the backend could not be started.
const ErrBackendStart = sentinel.Error("backend failed to start")

// ErrBackendExited is returned by Run when the backend exits on its own.
const ErrBackendExited = sentinel.Error("backend exited unexpectedly")

// ErrStopRequested is the cancellation cause recorded when Stop ends a Run.
const ErrStopRequested = sentinel.Error("stop requested")

// The following are re-exported so the public API imports only from core.
const (
	ErrPortExhausted      = netutil.ErrPortExhausted
	ErrAlreadyRunning     = runlock.ErrAlreadyRunning
	ErrBackendDirNotFound = backend.ErrBackendDirNotFound
	ErrAssetNotFound      = frontend.ErrAssetNotFound
)

// portReaper clears the chosen port before the backend binds it.
type portReaper interface {
	KillProcessOnPort(ctx context.Context, port int) reaper.Result
}

// browserLauncher opens the frontend without blocking the caller.
type browserLauncher interface {
	Launch()
}

// Supervisor runs one demo session: port, backend, browser, shutdown.
// It is safe for concurrent use; Run may be called at most once.
//
// Synchronization strategy:
//   - state is an atomic State (created → running → stopping → stopped).
//     Run claims the session with a CAS from created to running.
//   - stopReq is closed once by Stop; Run turns it into a context cause.
//   - done is closed by Run after teardown, which is what Stop waits on.
type Supervisor struct {
	cfg  Config
	port int
	log  *slog.Logger

	reaper   portReaper
	launcher browserLauncher

	state    atomic.Uint32 // State; zero value is StateCreated
	stopReq  chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (s *Supervisor) loadState() State {
	return State(s.state.Load())
}

func (s *Supervisor) storeState(st State) {
	s.state.Store(uint32(st))
}

// NewSupervisor validates cfg and chooses the port. When cfg.Port is zero it
// searches upward from cfg.StartPort and fails with an error matching
// ErrPortExhausted when nothing in the window is free. No process is started.
func NewSupervisor(cfg Config) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := Logger()
	port := cfg.Port
	if port == 0 {
		var err error
		port, err = netutil.FindFreePort(cfg.StartPort, cfg.PortSearchLimit)
		if err != nil {
			log.Error("no free port found", "start", cfg.StartPort, "limit", cfg.PortSearchLimit, "error", err)
			return nil, fmt.Errorf("choose port: %w", err)
		}
	}
	log.Info("using port", "port", port)

	return &Supervisor{
		cfg:  cfg,
		port: port,
		log:  log,
		reaper: reaper.New(reaper.Config{
			GracePeriod: cfg.ReapGracePeriod,
			Logger:      log.With("subsystem", "reaper"),
		}),
		launcher: frontend.New(frontend.Config{
			Asset:   cfg.FrontendAsset,
			Enabled: cfg.OpenBrowser,
			Logger:  log.With("subsystem", "frontend"),
		}),
		stopReq: make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Port returns the port handed to the backend.
func (s *Supervisor) Port() int {
	return s.port
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return s.loadState()
}

// Run performs the whole session and blocks until it ends. It returns nil
// when shutdown was requested through ctx or Stop, and an error when startup
// failed or the backend exited on its own. Teardown always runs, also when
// Run panics; the panic is then propagated.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(uint32(StateCreated), uint32(StateRunning)) {
		if s.loadState() == StateStopped {
			return ErrStopped
		}
		return ErrAlreadyStarted
	}

	var (
		lock *runlock.Lock
		bp   *backend.Process
	)
	defer func() {
		s.teardown(bp, lock)
		close(s.done)
	}()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go func() {
		select {
		case <-s.stopReq:
			cancel(ErrStopRequested)
		case <-runCtx.Done():
		}
	}()

	if s.cfg.UseRunLock {
		var err error
		lock, err = runlock.Acquire(filepath.Join(s.cfg.LogDir, runlock.FileName), s.log)
		if err != nil {
			s.log.Error("cannot start demo", "error", err)
			return err
		}
	}

	if res := s.reaper.KillProcessOnPort(runCtx, s.port); !res.Empty() {
		s.log.Info("cleared port", "port", s.port,
			"terminated", res.Terminated, "killed", res.Killed, "skipped", res.Skipped)
	}

	var err error
	bp, err = backend.New(backend.Config{
		Dir:         s.cfg.BackendDir,
		Command:     s.cfg.BackendCommand,
		Args:        s.cfg.BackendArgs,
		Port:        s.port,
		EnvFile:     s.cfg.BackendEnvFile,
		LogDir:      s.cfg.LogDir,
		StopTimeout: s.cfg.StopTimeout,
		Logger:      s.log.With("subsystem", "backend"),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackendStart, err)
	}
	if err := bp.Start(runCtx); err != nil {
		if runCtx.Err() != nil {
			return s.interrupted(runCtx)
		}
		return fmt.Errorf("%w: %w", ErrBackendStart, err)
	}

	if err := bp.WaitReady(runCtx, s.cfg.ReadyTimeout); err != nil {
		switch {
		case errors.Is(err, process.ErrProcessExited):
			s.log.Error("backend exited during startup", "port", s.port)
			return fmt.Errorf("%w: during startup", ErrBackendExited)
		case runCtx.Err() != nil:
			return s.interrupted(runCtx)
		default:
			s.log.Warn("backend not accepting connections yet; continuing",
				"port", s.port, "timeout", s.cfg.ReadyTimeout, "error", err)
		}
	}

	s.launcher.Launch()
	s.log.Info("demo is running; press Ctrl+C to stop", "port", s.port)

	select {
	case <-runCtx.Done():
		return s.interrupted(runCtx)
	case <-bp.Exited():
		s.log.Error("backend exited unexpectedly", "port", s.port)
		return ErrBackendExited
	}
}

// interrupted logs why the run context ended. Shutdown requests are not errors.
func (s *Supervisor) interrupted(ctx context.Context) error {
	s.log.Info("shutting down", "cause", context.Cause(ctx))
	return nil
}

// teardown stops the backend (SIGTERM, then SIGKILL) and releases the run
// lock. Failures are logged; teardown always reaches StateStopped.
func (s *Supervisor) teardown(bp *backend.Process, lock *runlock.Lock) {
	s.storeState(StateStopping)
	if bp != nil && bp.IsStarted() {
		s.log.Info("stopping backend server", "pid", bp.Pid())
	}
	if err := process.StopCloseAndNil(&bp, s.cfg.StopTimeout); err != nil {
		s.log.Warn("backend did not stop cleanly", "error", err)
	}
	lock.Release()
	s.storeState(StateStopped)
	s.log.Info("shutdown complete")
}

// Stop requests shutdown and waits for teardown to finish. It is a no-op
// before Run and after teardown, and safe to call from several goroutines.
func (s *Supervisor) Stop() error {
	if s.loadState() == StateCreated {
		return nil
	}
	s.stopOnce.Do(func() { close(s.stopReq) })
	<-s.done
	return nil
}
