package preflight

import (
	"context"
	"os/exec"
)

// Runner executes a command and returns its combined output. A command that
// runs but exits non-zero returns its output together with an error.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204: interpreter comes from operator configuration.
	cmd.Dir = dir
	return cmd.CombinedOutput()
}
