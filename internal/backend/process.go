package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/giantswarm/demoup/internal/fileutil"
	"github.com/giantswarm/demoup/internal/process"
	"github.com/giantswarm/demoup/internal/sentinel"
	"github.com/joho/godotenv"
)

// ErrBackendDirNotFound is returned by Start when the backend working
// directory is missing or is not a directory. No process is created.
const ErrBackendDirNotFound = sentinel.Error("backend directory not found")

// DefaultPortEnv is the environment variable carrying the port to the child.
const DefaultPortEnv = "PORT"

// processName labels log lines and the stdout/stderr capture files.
const processName = "backend"

// readinessPollInterval is the delay between TCP connection attempts while
// waiting for the backend to listen.
const readinessPollInterval = 100 * time.Millisecond

// readinessDialTimeout bounds a single readiness connection attempt.
const readinessDialTimeout = time.Second

// Compile-time interface satisfaction check.
var _ process.Stoppable = (*Process)(nil)

// Config holds the configuration for the backend process.
type Config struct {
	Dir     string   // Working directory; must exist before Start
	Command string   // Executable; bare names are resolved via PATH, relative paths against Dir
	Args    []string // Arguments, e.g. the server entry point
	Port    int      // Port the backend should listen on
	PortEnv string   // Variable carrying Port (default "PORT")
	EnvFile string   // Optional dotenv file; relative paths are resolved against Dir
	LogDir  string   // Directory for backend-stdout.log and backend-stderr.log

	// StopTimeout is used by Close when it has to stop a running backend.
	StopTimeout time.Duration

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

func (c Config) validate() error {
	var errs []error
	if c.Dir == "" {
		errs = append(errs, errors.New("backend dir must not be empty"))
	}
	if c.Command == "" {
		errs = append(errs, errors.New("backend command must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}
	if c.LogDir == "" {
		errs = append(errs, errors.New("log dir must not be empty"))
	}
	return errors.Join(errs...)
}

// Process manages the backend process lifecycle.
type Process struct {
	config Config
	base   process.BaseProcess
}

// New creates a backend Process. It performs no I/O; the directory check
// happens in Start.
func New(cfg Config) (*Process, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}
	if cfg.PortEnv == "" {
		cfg.PortEnv = DefaultPortEnv
	}
	return &Process{
		config: cfg,
		base:   process.NewBaseProcess(processName, cfg.Logger, cfg.StopTimeout),
	}, nil
}

// Start verifies the working directory and spawns the backend with the port
// in its environment. The child is deliberately not tied to ctx: canceling
// the supervisor's context must lead to a graceful Stop, not an immediate kill.
func (p *Process) Start(ctx context.Context) error {
	if p.base.IsStarted() {
		return process.ErrAlreadyStarted
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("start backend: %w", err)
	}

	log := p.base.Logger()
	if err := fileutil.RequireDir(p.config.Dir); err != nil {
		log.Error("backend directory not found", "dir", p.config.Dir, "error", err)
		return fmt.Errorf("%w: %w", ErrBackendDirNotFound, err)
	}

	env, err := p.environ()
	if err != nil {
		return fmt.Errorf("start backend: %w", err)
	}

	//nolint:gosec // G204: the command is operator configuration, not user input.
	cmd := exec.Command(p.resolveCommand(), p.config.Args...)
	cmd.Dir = p.config.Dir
	cmd.Env = env

	if err := p.base.SetupAndStart(cmd, p.config.LogDir); err != nil {
		log.Error("failed to start backend", "command", p.config.Command, "error", err)
		return fmt.Errorf("setup and start backend process: %w", err)
	}
	log.Info("backend server started", "port", p.config.Port, "pid", p.base.Pid())
	return nil
}

// resolveCommand turns a relative path with a separator into a path under
// Dir. exec.Command would otherwise resolve it against the launcher's own
// working directory.
func (p *Process) resolveCommand() string {
	c := p.config.Command
	if filepath.IsAbs(c) || !strings.ContainsRune(c, filepath.Separator) {
		return c
	}
	return filepath.Join(p.config.Dir, c)
}

// environ returns the child environment: the launcher's own environment, then
// the dotenv file (if configured and present), then the port variable. Later
// entries win, so the chosen port always overrides a PORT from the file.
func (p *Process) environ() ([]string, error) {
	env := os.Environ()

	if p.config.EnvFile != "" {
		path := p.config.EnvFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.config.Dir, path)
		}
		vars, err := godotenv.Read(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			p.base.Logger().Debug("no backend env file", "path", path)
		case err != nil:
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		default:
			keys := make([]string, 0, len(vars))
			for k := range vars {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				env = append(env, k+"="+vars[k])
			}
			p.base.Logger().Debug("loaded backend env file", "path", path, "vars", len(keys))
		}
	}

	return append(env, p.config.PortEnv+"="+strconv.Itoa(p.config.Port)), nil
}

// WaitReady polls a TCP connection to the backend port until it succeeds,
// the timeout elapses, ctx is canceled, or the backend exits. An early exit
// yields an error matching process.ErrProcessExited.
func (p *Process) WaitReady(ctx context.Context, timeout time.Duration) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(p.config.Port))
	log := p.base.Logger()
	dialer := &net.Dialer{Timeout: readinessDialTimeout}

	if err := process.WaitReady(ctx, process.WaitReadyConfig{
		Interval:      readinessPollInterval,
		Timeout:       timeout,
		Name:          processName,
		Port:          p.config.Port,
		Logger:        log,
		ProcessExited: p.base.Exited(),
	}, func(checkCtx context.Context, attempt int) (bool, error) {
		conn, err := dialer.DialContext(checkCtx, "tcp", addr)
		if err != nil {
			log.Debug("backend readiness attempt", "port", p.config.Port, "attempt", attempt, "error", err)
			return false, nil
		}
		_ = conn.Close() // best-effort close of readiness connection
		return true, nil
	}); err != nil {
		return fmt.Errorf("backend not ready: %w", err)
	}
	return nil
}

// Port returns the port handed to the backend.
func (p *Process) Port() int {
	return p.config.Port
}

// Pid returns the backend's process ID, or 0 when it is not running.
func (p *Process) Pid() int {
	return p.base.Pid()
}

// IsStarted reports whether the backend has been started and not yet stopped.
func (p *Process) IsStarted() bool {
	return p.base.IsStarted()
}

// Exited returns a channel closed when the backend exits, or nil when it is
// not running.
func (p *Process) Exited() <-chan struct{} {
	return p.base.Exited()
}

// Stop terminates the backend: SIGTERM, then SIGKILL after the grace period.
// It is a no-op when the backend is not running.
func (p *Process) Stop(timeout time.Duration) error {
	return p.base.Stop(timeout)
}

// Close releases log file handles held by the process.
func (p *Process) Close() {
	p.base.Close()
}
