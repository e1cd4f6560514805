package demoup

import "github.com/giantswarm/demoup/internal/core"

// Sentinel errors for error inspection with errors.Is.
const (
	// ErrPortExhausted is returned by New when no port in the search window
	// is free.
	ErrPortExhausted = core.ErrPortExhausted

	// ErrAlreadyStarted is returned by Run while the session is running.
	ErrAlreadyStarted = core.ErrAlreadyStarted

	// ErrStopped is returned by Run after the session has ended.
	ErrStopped = core.ErrStopped

	// ErrAlreadyRunning is returned by Run when another launcher holds the
	// run lock in the same log directory.
	ErrAlreadyRunning = core.ErrAlreadyRunning

	// ErrBackendStart is returned by Run when the backend cannot be started.
	ErrBackendStart = core.ErrBackendStart

	// ErrBackendDirNotFound accompanies ErrBackendStart when the backend
	// directory is missing.
	ErrBackendDirNotFound = core.ErrBackendDirNotFound

	// ErrBackendExited is returned by Run when the backend exits on its own.
	ErrBackendExited = core.ErrBackendExited

	// ErrAssetNotFound is logged when the frontend file is missing. It never
	// fails a session.
	ErrAssetNotFound = core.ErrAssetNotFound

	// ErrSignalReceived is the cancellation cause of a NotifyContext context.
	ErrSignalReceived = core.ErrSignalReceived

	// ErrInterpreterNotFound is returned by CheckEnvironment when the backend
	// command cannot be run.
	ErrInterpreterNotFound = core.ErrInterpreterNotFound

	// ErrUnsupportedRuntime is returned by CheckEnvironment when the
	// interpreter is older than the minimum version.
	ErrUnsupportedRuntime = core.ErrUnsupportedRuntime

	// ErrInstallFailed is returned by CheckEnvironment when missing packages
	// cannot be installed.
	ErrInstallFailed = core.ErrInstallFailed
)
