//go:build unix

package process

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestExpectSignalExit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err     func(t *testing.T) error
		wantErr bool
	}{
		"nil error": {
			err: func(*testing.T) error { return nil },
		},
		"terminated by SIGTERM": {
			err: func(t *testing.T) error { return signalExitError(t, syscall.SIGTERM) },
		},
		"killed by SIGKILL": {
			err: func(t *testing.T) error { return signalExitError(t, syscall.SIGKILL) },
		},
		"non-zero exit status after stop request": {
			err: func(t *testing.T) error { return statusExitError(t, 143) },
		},
		"terminated by another signal": {
			err:     func(t *testing.T) error { return signalExitError(t, syscall.SIGINT) },
			wantErr: true,
		},
		"not an exit error": {
			err:     func(*testing.T) error { return errors.New("wait: no child processes") },
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := expectSignalExit(tc.err(t), "backend")
			if tc.wantErr && got == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && got != nil {
				t.Fatalf("expected nil, got %v", got)
			}
		})
	}
}

func TestExpectSignalExit_PrefixesProcessName(t *testing.T) {
	t.Parallel()

	err := expectSignalExit(errors.New("broken pipe"), "backend")
	if got, want := err.Error(), "backend: broken pipe"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestDrainDone(t *testing.T) {
	t.Parallel()

	waitErr := errors.New("exit status 3")

	tests := map[string]struct {
		fill    func(chan error)
		wantOK  bool
		wantErr error
	}{
		"nil result":  {fill: func(c chan error) { c <- nil }, wantOK: true},
		"error value": {fill: func(c chan error) { c <- waitErr }, wantOK: true, wantErr: waitErr},
		"timeout":     {fill: func(chan error) {}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			done := make(chan error, 1)
			tc.fill(done)

			ok, err := drainDone(done, 20*time.Millisecond)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewBaseProcess(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		bp := NewBaseProcess("backend", nil, 0)
		if bp.Name() != "backend" {
			t.Errorf("Name() = %q, want %q", bp.Name(), "backend")
		}
		if bp.Logger() == nil {
			t.Fatal("expected non-nil logger")
		}
		if bp.IsStarted() || bp.Pid() != 0 || bp.Exited() != nil {
			t.Error("new process should not be started")
		}
	})

	t.Run("panics on empty name", func(t *testing.T) {
		t.Parallel()
		defer func() {
			if r := recover(); r != "demoup: process name must not be empty" {
				t.Fatalf("recover() = %v, want name panic", r)
			}
		}()
		NewBaseProcess("", nil, 0)
	})
}

func TestBaseProcess_StopAndCloseWhenNotStarted(t *testing.T) {
	t.Parallel()

	bp := NewBaseProcess("backend", nil, 0)
	for range 2 {
		if err := bp.Stop(time.Second); err != nil {
			t.Fatalf("Stop on unstarted process should return nil, got %v", err)
		}
	}
	bp.Close()
}

func TestBaseProcess_SetupAndStartValidation(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	sleep := lookPath(t, "sleep")

	tests := map[string]struct {
		cmd    *exec.Cmd
		logDir string
		want   error
	}{
		"nil cmd":       {cmd: nil, logDir: logDir, want: ErrNilCmd},
		"empty path":    {cmd: &exec.Cmd{Dir: logDir}, logDir: logDir, want: ErrEmptyCmdPath},
		"empty dir":     {cmd: &exec.Cmd{Path: sleep}, logDir: logDir, want: ErrEmptyWorkDir},
		"empty log dir": {cmd: &exec.Cmd{Path: sleep, Dir: logDir}, logDir: "", want: ErrEmptyLogDir},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			bp := NewBaseProcess("backend", nil, 0)
			if err := bp.SetupAndStart(tc.cmd, tc.logDir); !errors.Is(err, tc.want) {
				t.Fatalf("SetupAndStart() = %v, want %v", err, tc.want)
			}
			if bp.IsStarted() {
				t.Fatal("process must not be started after validation failure")
			}
		})
	}
}

func TestBaseProcess_StartStop(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	cmd := exec.Command(lookPath(t, "sh"), "-c", "echo hello; exec sleep 60")
	cmd.Dir = t.TempDir()

	bp := NewBaseProcess("backend", nil, time.Second)
	if err := bp.SetupAndStart(cmd, logDir); err != nil {
		t.Fatalf("SetupAndStart() error: %v", err)
	}
	t.Cleanup(bp.Close)

	if !bp.IsStarted() || bp.Pid() == 0 {
		t.Fatal("expected started process with a pid")
	}
	again := exec.Command(cmd.Path)
	again.Dir = cmd.Dir
	for name, next := range map[string]*exec.Cmd{
		"complete command": again,
		"missing dir":      exec.Command(cmd.Path),
		"nil command":      nil,
	} {
		if err := bp.SetupAndStart(next, logDir); !errors.Is(err, ErrAlreadyStarted) {
			t.Fatalf("second SetupAndStart() with %s = %v, want ErrAlreadyStarted", name, err)
		}
	}
	exited := bp.Exited()
	waitForOutput(t, filepath.Join(logDir, "backend-stdout.log"), "hello")

	start := time.Now()
	if err := bp.Stop(5 * time.Second); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > TermGracePeriod {
		t.Errorf("graceful stop took %v, expected SIGTERM to suffice", elapsed)
	}
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("Exited channel should be closed after Stop")
	}
	if bp.IsStarted() {
		t.Fatal("IsStarted should be false after Stop")
	}
	if err := bp.Stop(time.Second); err != nil {
		t.Fatalf("second Stop() = %v, want nil", err)
	}
}

func TestBaseProcess_StopEscalatesToKill(t *testing.T) {
	t.Parallel()

	// The shell ignores SIGTERM and exec keeps the disposition for sleep.
	cmd := exec.Command(lookPath(t, "sh"), "-c", `trap "" TERM; exec sleep 60`)
	cmd.Dir = t.TempDir()

	bp := NewBaseProcess("stubborn", nil, 0)
	if err := bp.SetupAndStart(cmd, t.TempDir()); err != nil {
		t.Fatalf("SetupAndStart() error: %v", err)
	}
	t.Cleanup(bp.Close)

	// Give the shell time to install the trap before signaling.
	time.Sleep(200 * time.Millisecond)

	start := time.Now()
	if err := bp.Stop(300 * time.Millisecond); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Stop took %v, want SIGKILL shortly after the grace period", elapsed)
	}
}

func TestLogFiles_Paths(t *testing.T) {
	t.Parallel()

	lf := LogFiles{dir: "/tmp/demo/logs", stdoutName: "backend-stdout.log", stderrName: "backend-stderr.log"}
	if got, want := lf.StdoutPath(), "/tmp/demo/logs/backend-stdout.log"; got != want {
		t.Errorf("StdoutPath() = %q, want %q", got, want)
	}
	if got, want := lf.StderrPath(), "/tmp/demo/logs/backend-stderr.log"; got != want {
		t.Errorf("StderrPath() = %q, want %q", got, want)
	}

	// Closing nil handles must not panic.
	var empty LogFiles
	empty.Close()
}

func TestNewLogFiles_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "logs")
	lf, err := NewLogFiles(dir, "backend")
	if err != nil {
		t.Fatalf("NewLogFiles() error: %v", err)
	}
	defer lf.Close()

	for _, p := range []string{lf.StdoutPath(), lf.StderrPath()} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
}

func TestStopCloseAndNil(t *testing.T) {
	t.Parallel()

	t.Run("nil pointer", func(t *testing.T) {
		t.Parallel()
		if err := StopCloseAndNil[*fakeStoppable](nil, time.Second); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("nil value", func(t *testing.T) {
		t.Parallel()
		var p *fakeStoppable
		if err := StopCloseAndNil(&p, time.Second); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("stops closes and clears", func(t *testing.T) {
		t.Parallel()
		f := &fakeStoppable{}
		p := f
		if err := StopCloseAndNil(&p, 5*time.Second); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p != nil || !f.stopped || !f.closed || f.stopTimeout != 5*time.Second {
			t.Errorf("got p=%v stopped=%v closed=%v timeout=%v", p, f.stopped, f.closed, f.stopTimeout)
		}
	})

	t.Run("closes and clears on stop error", func(t *testing.T) {
		t.Parallel()
		stopErr := errors.New("stop failed")
		f := &fakeStoppable{stopErr: stopErr}
		p := f
		if err := StopCloseAndNil(&p, time.Second); !errors.Is(err, stopErr) {
			t.Fatalf("err = %v, want %v", err, stopErr)
		}
		if p != nil || !f.closed {
			t.Error("pointer should be nil and Close called even when Stop fails")
		}
	})
}

type fakeStoppable struct {
	stopped     bool
	closed      bool
	stopErr     error
	stopTimeout time.Duration
}

func (f *fakeStoppable) Stop(timeout time.Duration) error {
	f.stopped = true
	f.stopTimeout = timeout
	return f.stopErr
}

func (f *fakeStoppable) Close() {
	f.closed = true
}

// waitForOutput polls path until it contains want.
func waitForOutput(t *testing.T, path, want string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		out, _ := os.ReadFile(path)
		if strings.Contains(string(out), want) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s = %q, want it to contain %q", path, out, want)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func lookPath(t *testing.T, name string) string {
	t.Helper()

	p, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return p
}

// signalExitError returns the *exec.ExitError of a real process killed by sig.
func signalExitError(t *testing.T, sig syscall.Signal) error {
	t.Helper()

	cmd := exec.Command(lookPath(t, "sleep"), "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}
	if err := cmd.Process.Signal(sig); err != nil {
		_ = cmd.Process.Kill()
		t.Fatalf("signal sleep with %v: %v", sig, err)
	}
	err := cmd.Wait()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *exec.ExitError, got %v", err)
	}
	return err
}

// statusExitError returns the *exec.ExitError of a process exiting with code.
func statusExitError(t *testing.T, code int) error {
	t.Helper()

	err := exec.Command(lookPath(t, "sh"), "-c", "exit "+strconv.Itoa(code)).Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *exec.ExitError, got %v", err)
	}
	return err
}
