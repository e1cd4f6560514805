package core

import (
	"context"

	"github.com/giantswarm/demoup/internal/preflight"
)

// Re-exported so the public API imports only from core.
const (
	ErrInterpreterNotFound = preflight.ErrInterpreterNotFound
	ErrUnsupportedRuntime  = preflight.ErrUnsupportedRuntime
	ErrInstallFailed       = preflight.ErrInstallFailed
)

// EnvironmentConfig holds configuration for CheckEnvironment. Zero fields
// take the preflight defaults.
type EnvironmentConfig struct {
	Interpreter string
	MinVersion  string
	BackendDir  string
	Packages    []string
}

// CheckEnvironment verifies the interpreter version and the backend's
// packages, installing missing packages from the backend's requirements file.
func CheckEnvironment(ctx context.Context, cfg EnvironmentConfig) error {
	return checkEnvironment(ctx, cfg, nil)
}

func checkEnvironment(ctx context.Context, cfg EnvironmentConfig, runner preflight.Runner) error {
	c, err := preflight.New(preflight.Config{
		Interpreter: cfg.Interpreter,
		MinVersion:  cfg.MinVersion,
		BackendDir:  cfg.BackendDir,
		Packages:    cfg.Packages,
		Runner:      runner,
		Logger:      Logger().With("subsystem", "preflight"),
	})
	if err != nil {
		return err
	}
	return c.Ensure(ctx)
}
