package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giantswarm/demoup/internal/fileutil"
)

// LogFiles holds the stdout/stderr capture files of a child process.
type LogFiles struct {
	stdoutFile *os.File
	stderrFile *os.File
	dir        string
	stdoutName string // e.g. "backend-stdout.log"
	stderrName string // e.g. "backend-stderr.log"
}

// create opens both files in append mode so output from earlier runs is kept.
// Both handles are assigned only after both opens succeed.
func (l *LogFiles) create() error {
	const flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	stdoutFile, err := os.OpenFile(l.StdoutPath(), flags, 0o644)
	if err != nil {
		return fmt.Errorf("create stdout log: %w", err)
	}
	stderrFile, err := os.OpenFile(l.StderrPath(), flags, 0o644)
	if err != nil {
		_ = stdoutFile.Close()
		return fmt.Errorf("create stderr log: %w", err)
	}
	l.stdoutFile = stdoutFile
	l.stderrFile = stderrFile
	return nil
}

// Close closes both log file handles and nils them to prevent double-close.
func (l *LogFiles) Close() {
	if l.stdoutFile != nil {
		_ = l.stdoutFile.Close()
		l.stdoutFile = nil
	}
	if l.stderrFile != nil {
		_ = l.stderrFile.Close()
		l.stderrFile = nil
	}
}

// StdoutPath returns the path of the stdout log file.
func (l *LogFiles) StdoutPath() string {
	return filepath.Join(l.dir, l.stdoutName)
}

// StderrPath returns the path of the stderr log file.
func (l *LogFiles) StderrPath() string {
	return filepath.Join(l.dir, l.stderrName)
}

// NewLogFiles creates dir if needed and opens "<name>-stdout.log" and
// "<name>-stderr.log" inside it.
func NewLogFiles(dir, processName string) (LogFiles, error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return LogFiles{}, err
	}
	l := LogFiles{
		dir:        dir,
		stdoutName: processName + "-stdout.log",
		stderrName: processName + "-stderr.log",
	}
	if err := l.create(); err != nil {
		return LogFiles{}, err
	}
	return l, nil
}

// DefaultStopTimeout is the total time Stop may take when no explicit timeout
// is configured.
const DefaultStopTimeout = 10 * time.Second

// TermGracePeriod is how long a process gets to exit after SIGTERM before it
// is sent SIGKILL. The effective grace period is capped at the stop timeout.
const TermGracePeriod = 5 * time.Second

// killDrainTimeout bounds the wait on the done channel once SIGKILL has been
// sent or the process is known to be gone. It only fires if cmd.Wait hangs.
const killDrainTimeout = 10 * time.Second

// drainDone reads from done with timeout as an upper bound. It returns true
// and the cmd.Wait error if a value arrived, false and nil otherwise.
func drainDone(done <-chan error, timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// stopWithDone sends SIGTERM, arms a SIGKILL for when the grace period runs
// out, and waits for the cmd.Wait result on done. done must be fed by the one
// goroutine that calls cmd.Wait; stopWithDone never calls Wait itself.
//
// Worst case it blocks for timeout + killDrainTimeout.
func stopWithDone(cmd *exec.Cmd, done <-chan error, timeout time.Duration, name string) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if done == nil {
		return fmt.Errorf("%s: done channel must not be nil", name)
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Either the process is already gone or the platform cannot deliver
		// SIGTERM. Kill handles the second case and is harmless in the first.
		_ = cmd.Process.Kill()
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("%s: timed out draining process after signal failure", name)
		}
		return expectSignalExit(waitErr, name)
	}

	grace := min(TermGracePeriod, timeout)
	killTimer := time.AfterFunc(grace, func() {
		// Kill on an already reaped process returns "process already
		// finished", which is fine to drop.
		_ = cmd.Process.Kill()
	})
	defer killTimer.Stop()

	totalTimer := time.NewTimer(timeout)
	defer totalTimer.Stop()

	select {
	case err := <-done:
		return expectSignalExit(err, name)
	case <-totalTimer.C:
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("%s: timed out waiting for process to exit after SIGKILL", name)
		}
		if err := expectSignalExit(waitErr, name); err != nil {
			return fmt.Errorf("%s stop timeout: %w", name, err)
		}
		return nil
	}
}

// expectSignalExit interprets the cmd.Wait error after a stop request. Exits
// caused by SIGTERM or SIGKILL count as a clean stop, and so does a non-zero
// exit status, since interpreters such as python translate SIGTERM into an
// ordinary exit code.
func expectSignalExit(err error, name string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		status, ok := exitErr.Sys().(syscall.WaitStatus)
		if !ok {
			return nil
		}
		if !status.Signaled() {
			return nil
		}
		if sig := status.Signal(); sig == syscall.SIGTERM || sig == syscall.SIGKILL {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}

// StartCmd opens the log files, points cmd's stdout/stderr at them, and starts
// cmd. On success the caller owns the LogFiles; on failure they are closed.
func StartCmd(cmd *exec.Cmd, logDir, processName string) (LogFiles, error) {
	logFiles, err := NewLogFiles(logDir, processName)
	if err != nil {
		return LogFiles{}, fmt.Errorf("create %s logs: %w", processName, err)
	}

	cmd.Stdout = logFiles.stdoutFile
	cmd.Stderr = logFiles.stderrFile

	if err := cmd.Start(); err != nil {
		logFiles.Close()
		return LogFiles{}, fmt.Errorf("start %s process: %w", processName, err)
	}

	return logFiles, nil
}
