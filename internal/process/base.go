package process

import (
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/giantswarm/demoup/internal/sentinel"
)

// ErrAlreadyStarted is returned when Start is called on a process that is
// already running. Callers must Stop the process before starting it again.
const ErrAlreadyStarted = sentinel.Error("process already started")

// ErrNilCmd is returned when SetupAndStart is called with a nil *exec.Cmd.
const ErrNilCmd = sentinel.Error("cmd must not be nil")

// ErrEmptyCmdPath is returned when SetupAndStart is called with an empty cmd.Path.
const ErrEmptyCmdPath = sentinel.Error("cmd.Path must not be empty")

// ErrEmptyWorkDir is returned when SetupAndStart is called with an empty cmd.Dir.
const ErrEmptyWorkDir = sentinel.Error("cmd.Dir must not be empty")

// ErrEmptyLogDir is returned when SetupAndStart is called with an empty log directory.
const ErrEmptyLogDir = sentinel.Error("log directory must not be empty")

// BaseProcess owns one child process: its command, the single goroutine
// waiting on it, and the files capturing its output. Embed it in
// package-specific Process types to reuse Stop and Close.
//
// BaseProcess is not safe for concurrent use. The supervisor serializes
// Start and Stop through its state machine.
type BaseProcess struct {
	cmd         *exec.Cmd
	waitDone    <-chan error    // receives cmd.Wait result; consumed once by Stop
	exited      <-chan struct{} // closed when the process exits
	logFiles    LogFiles
	name        string
	log         *slog.Logger
	stopTimeout time.Duration // used by Close when it has to stop the process itself
}

// NewBaseProcess creates a BaseProcess. A nil logger falls back to
// slog.Default() and a zero stopTimeout to DefaultStopTimeout. Panics if name
// is empty, since the name labels log files and every log line.
func NewBaseProcess(name string, logger *slog.Logger, stopTimeout time.Duration) BaseProcess {
	if name == "" {
		panic("demoup: process name must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return BaseProcess{name: name, log: logger, stopTimeout: stopTimeout}
}

// Stop terminates the process: SIGTERM first, SIGKILL once the grace period
// (capped at timeout) runs out. Calling Stop on a process that was never
// started, or was already stopped, returns nil immediately. After Stop
// returns, IsStarted reports false whether or not the stop succeeded.
func (b *BaseProcess) Stop(timeout time.Duration) error {
	if b.cmd == nil || b.cmd.Process == nil {
		b.reset()
		return nil
	}
	pid := b.cmd.Process.Pid
	b.log.Info("stopping process", "process", b.name, "pid", pid, "timeout", timeout)

	err := stopWithDone(b.cmd, b.waitDone, timeout, b.name)
	if err != nil {
		b.log.Warn("process stop failed; process may be orphaned",
			"process", b.name, "pid", pid, "error", err)
	} else {
		b.log.Info("process stopped", "process", b.name, "pid", pid)
	}
	b.reset()
	return err
}

func (b *BaseProcess) reset() {
	b.cmd = nil
	b.waitDone = nil
	b.exited = nil
}

// Close releases the log file handles. A process that is still running is
// stopped first, with a warning, using the stop timeout given to
// NewBaseProcess.
func (b *BaseProcess) Close() {
	if b.cmd != nil {
		b.log.Warn("process.Close called without Stop; stopping automatically",
			"process", b.name)
		timeout := b.stopTimeout
		if timeout <= 0 {
			timeout = DefaultStopTimeout
		}
		if err := b.Stop(timeout); err != nil {
			b.log.Warn("auto-stop during Close failed",
				"process", b.name, "error", err)
		}
	}
	b.logFiles.Close()
}

// Logger returns the logger used by this process.
func (b *BaseProcess) Logger() *slog.Logger {
	return b.log
}

// Name returns the process name used in logs and log file names.
func (b *BaseProcess) Name() string {
	return b.name
}

// Exited returns a channel that is closed when the process exits. Returns nil
// if the process has not been started or has already been stopped.
func (b *BaseProcess) Exited() <-chan struct{} {
	return b.exited
}

// IsStarted reports whether the process has been started and not yet stopped.
func (b *BaseProcess) IsStarted() bool {
	return b.cmd != nil
}

// Pid returns the OS process ID, or 0 when the process is not running.
func (b *BaseProcess) Pid() int {
	if b.cmd == nil || b.cmd.Process == nil {
		return 0
	}
	return b.cmd.Process.Pid
}

// SetupAndStart wires stdout/stderr into log files under logDir and starts
// cmd. The caller sets Path, Args, Dir and Env. A single goroutine calls
// cmd.Wait; its result feeds Stop and its completion closes Exited.
func (b *BaseProcess) SetupAndStart(cmd *exec.Cmd, logDir string) error {
	switch {
	case b.cmd != nil:
		return ErrAlreadyStarted
	case cmd == nil:
		return ErrNilCmd
	case cmd.Path == "":
		return ErrEmptyCmdPath
	case cmd.Dir == "":
		return ErrEmptyWorkDir
	case logDir == "":
		return ErrEmptyLogDir
	}

	configureSysProcAttr(cmd)

	// Drop handles from a previous run before opening new ones.
	b.logFiles.Close()

	logFiles, err := StartCmd(cmd, logDir, b.name)
	if err != nil {
		return fmt.Errorf("start command: %w", err)
	}
	b.cmd = cmd
	b.logFiles = logFiles

	// cmd.Wait must be called exactly once. done carries its result to Stop;
	// exited is closed afterwards so any number of readers can observe exit.
	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		done <- cmd.Wait()
		close(exited)
	}()
	b.waitDone = done
	b.exited = exited

	b.log.Info("process started",
		"process", b.name, "pid", cmd.Process.Pid, "dir", cmd.Dir,
		"stdout", logFiles.StdoutPath(), "stderr", logFiles.StderrPath())
	return nil
}
