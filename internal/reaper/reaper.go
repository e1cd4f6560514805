package reaper

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/wait"
)

// DefaultGracePeriod is how long a process gets to exit after the termination
// request before it is force killed.
const DefaultGracePeriod = 5 * time.Second

// exitPollInterval is the delay between liveness checks while waiting for a
// terminated process to go away.
const exitPollInterval = 100 * time.Millisecond

// Target is a process bound to the port being reaped.
type Target interface {
	Pid() int32
	Terminate(ctx context.Context) error
	Kill(ctx context.Context) error
	IsRunning(ctx context.Context) (bool, error)
}

// Finder lists the processes with a local socket on port.
type Finder interface {
	ProcessesOnPort(ctx context.Context, port int) ([]Target, error)
}

// Result summarizes one reaping pass. Each PID appears in at most one list.
type Result struct {
	Terminated []int32 // exited within the grace period
	Killed     []int32 // force killed after the grace period
	Skipped    []int32 // already gone or not ours to signal
}

// Empty reports whether no process was found on the port.
func (r Result) Empty() bool {
	return len(r.Terminated) == 0 && len(r.Killed) == 0 && len(r.Skipped) == 0
}

// Config holds the configuration for a Reaper.
type Config struct {
	// Finder enumerates candidate processes (default: system sockets via gopsutil).
	Finder Finder

	// GracePeriod before a force kill (default DefaultGracePeriod).
	GracePeriod time.Duration

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

// Reaper terminates processes bound to a port. Safe for concurrent use.
type Reaper struct {
	finder Finder
	grace  time.Duration
	self   int32
	log    *slog.Logger
}

// New creates a Reaper, filling in defaults for zero Config fields.
func New(cfg Config) *Reaper {
	if cfg.Finder == nil {
		cfg.Finder = SystemFinder{}
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Reaper{
		finder: cfg.Finder,
		grace:  cfg.GracePeriod,
		self:   int32(os.Getpid()), //nolint:gosec // PIDs fit in int32 on every supported platform.
		log:    cfg.Logger,
	}
}

// KillProcessOnPort terminates every process other than the caller that has
// a local socket on port, and returns once each one was handled. It never
// fails: problems are logged and the affected PIDs reported as skipped.
func (r *Reaper) KillProcessOnPort(ctx context.Context, port int) Result {
	targets, err := r.finder.ProcessesOnPort(ctx, port)
	if err != nil {
		r.log.Warn("failed to enumerate processes on port", "port", port, "error", err)
		return Result{}
	}

	var (
		mu  sync.Mutex
		res Result
	)
	record := func(list *[]int32, pid int32) {
		mu.Lock()
		defer mu.Unlock()
		*list = append(*list, pid)
	}

	var g errgroup.Group
	seen := make(map[int32]struct{}, len(targets))
	for _, t := range targets {
		pid := t.Pid()
		if pid == r.self {
			continue
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}

		g.Go(func() error {
			switch r.reap(ctx, t, port) {
			case outcomeTerminated:
				record(&res.Terminated, pid)
			case outcomeKilled:
				record(&res.Killed, pid)
			case outcomeSkipped:
				record(&res.Skipped, pid)
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	slices.Sort(res.Terminated)
	slices.Sort(res.Killed)
	slices.Sort(res.Skipped)
	return res
}

type outcome int

const (
	outcomeTerminated outcome = iota
	outcomeKilled
	outcomeSkipped
)

func (r *Reaper) reap(ctx context.Context, t Target, port int) outcome {
	pid := t.Pid()
	log := r.log.With("pid", pid, "port", port)

	log.Info("killing process on port")
	if err := t.Terminate(ctx); err != nil {
		if ignorable(err) {
			log.Debug("skipping process", "error", err)
			return outcomeSkipped
		}
		log.Warn("failed to terminate process", "error", err)
		return outcomeSkipped
	}

	err := wait.PollUntilContextTimeout(ctx, exitPollInterval, r.grace, true,
		func(pollCtx context.Context) (bool, error) {
			running, err := t.IsRunning(pollCtx)
			if err != nil {
				if ignorable(err) {
					return true, nil
				}
				return false, nil
			}
			return !running, nil
		})
	if err == nil {
		log.Info("process terminated")
		return outcomeTerminated
	}

	log.Warn("process did not exit after termination request; killing", "grace", r.grace)
	// The caller's context may be what ended the wait; the kill still has to go out.
	if err := t.Kill(context.WithoutCancel(ctx)); err != nil {
		if ignorable(err) {
			log.Debug("process exited before kill", "error", err)
			return outcomeTerminated
		}
		log.Warn("failed to kill process", "error", err)
		return outcomeSkipped
	}
	log.Info("process killed")
	return outcomeKilled
}

// ignorable reports whether err means the process is gone or belongs to
// someone we may not signal.
func ignorable(err error) bool {
	return errors.Is(err, ErrProcessGone) ||
		errors.Is(err, os.ErrProcessDone) ||
		errors.Is(err, syscall.ESRCH) ||
		errors.Is(err, os.ErrPermission)
}
