package runlock

import (
	"fmt"
	"log/slog"

	"github.com/giantswarm/demoup/internal/fileutil"
	"github.com/giantswarm/demoup/internal/sentinel"
	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned by Acquire when another process holds the lock.
const ErrAlreadyRunning = sentinel.Error("another launcher is already running")

// FileName is the lock file created inside the log directory.
const FileName = "demoup.lock"

// Lock is a held run lock. Release it exactly once; extra calls are no-ops.
type Lock struct {
	fl  *flock.Flock
	log *slog.Logger
}

// Acquire takes an exclusive, non-blocking lock on path, creating the parent
// directory if needed. A lock held by someone else yields ErrAlreadyRunning.
func Acquire(path string, logger *slog.Logger) (*Lock, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fileutil.EnsureDirForFile(path); err != nil {
		return nil, fmt.Errorf("acquiring run lock %s: %w", path, err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock file %s)", ErrAlreadyRunning, path)
	}

	logger.Debug("run lock acquired", "path", path)
	return &Lock{fl: fl, log: logger}, nil
}

// Path returns the lock file path, or "" for a released lock.
func (l *Lock) Path() string {
	if l == nil || l.fl == nil {
		return ""
	}
	return l.fl.Path()
}

// Release unlocks and closes the lock file. The file stays on disk: removing
// it could race with another process that has just locked it. Errors are
// logged at debug level only.
func (l *Lock) Release() {
	if l == nil || l.fl == nil {
		return
	}
	if err := l.fl.Close(); err != nil {
		l.log.Debug("failed to release run lock", "path", l.fl.Path(), "err", err)
	}
	l.fl = nil
}
