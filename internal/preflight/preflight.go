package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/giantswarm/demoup/internal/fileutil"
	"github.com/giantswarm/demoup/internal/sentinel"
	"github.com/hashicorp/go-version"
	"golang.org/x/sync/errgroup"
)

const (
	// ErrInterpreterNotFound is returned when the interpreter cannot be run.
	ErrInterpreterNotFound = sentinel.Error("interpreter not found")

	// ErrUnsupportedRuntime is returned when the interpreter is older than
	// the minimum version or reports a version that cannot be parsed.
	ErrUnsupportedRuntime = sentinel.Error("unsupported runtime version")

	// ErrInstallFailed is returned when dependency installation fails or
	// leaves packages missing.
	ErrInstallFailed = sentinel.Error("dependency installation failed")
)

const (
	// DefaultInterpreter runs the backend and the checks.
	DefaultInterpreter = "python3"

	// DefaultMinVersion is the oldest interpreter release the backend supports.
	DefaultMinVersion = "3.8"

	// DefaultRequirements is the requirements file inside the backend directory.
	DefaultRequirements = "requirements.txt"
)

// DefaultPackages are the modules the backend server imports at startup.
func DefaultPackages() []string {
	return []string{"fastapi", "uvicorn"}
}

// Config holds the configuration for a Checker.
type Config struct {
	Interpreter  string
	MinVersion   string
	BackendDir   string   // Working directory for installation
	Requirements string   // Relative to BackendDir unless absolute
	Packages     []string // Modules that must be importable
	Runner       Runner
	Logger       *slog.Logger
}

func (c Config) validate() error {
	var errs []error
	if c.BackendDir == "" {
		errs = append(errs, errors.New("backend dir must not be empty"))
	}
	if _, err := version.NewVersion(c.MinVersion); err != nil {
		errs = append(errs, fmt.Errorf("min version %q: %w", c.MinVersion, err))
	}
	for _, p := range c.Packages {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, errors.New("package names must not be empty"))
			break
		}
	}
	return errors.Join(errs...)
}

// Checker runs the environment checks.
type Checker struct {
	cfg        Config
	constraint version.Constraints
	log        *slog.Logger
}

// New creates a Checker, filling in defaults for zero Config fields.
func New(cfg Config) (*Checker, error) {
	if cfg.Interpreter == "" {
		cfg.Interpreter = DefaultInterpreter
	}
	if cfg.MinVersion == "" {
		cfg.MinVersion = DefaultMinVersion
	}
	if cfg.Requirements == "" {
		cfg.Requirements = DefaultRequirements
	}
	if cfg.Packages == nil {
		cfg.Packages = DefaultPackages()
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid preflight config: %w", err)
	}
	constraint, err := version.NewConstraint(">= " + cfg.MinVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid preflight config: %w", err)
	}
	return &Checker{cfg: cfg, constraint: constraint, log: cfg.Logger}, nil
}

// CheckRuntime runs "<interpreter> --version" and compares the result with
// the minimum version. Pre-release suffixes are ignored.
func (c *Checker) CheckRuntime(ctx context.Context) (*version.Version, error) {
	out, err := c.cfg.Runner.Run(ctx, "", c.cfg.Interpreter, "--version")
	if err != nil {
		c.log.Error("interpreter not available", "interpreter", c.cfg.Interpreter, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrInterpreterNotFound, c.cfg.Interpreter, err)
	}

	v, err := parseVersion(string(out))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedRuntime, err)
	}
	if !c.constraint.Check(v.Core()) {
		c.log.Error("interpreter too old", "interpreter", c.cfg.Interpreter,
			"version", v.String(), "required", c.constraint.String())
		return v, fmt.Errorf("%w: %s %s, need %s",
			ErrUnsupportedRuntime, c.cfg.Interpreter, v, c.constraint)
	}
	c.log.Info("runtime version ok", "interpreter", c.cfg.Interpreter, "version", v.String())
	return v, nil
}

// parseVersion extracts the version from output such as "Python 3.11.4".
func parseVersion(out string) (*version.Version, error) {
	for _, field := range strings.Fields(out) {
		if v, err := version.NewVersion(field); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("no version in %q", strings.TrimSpace(out))
}

// MissingPackages probes every configured package concurrently and returns
// the ones that fail to import, in configuration order.
func (c *Checker) MissingPackages(ctx context.Context) ([]string, error) {
	missing := make([]bool, len(c.cfg.Packages))

	g, gctx := errgroup.WithContext(ctx)
	for i, pkg := range c.cfg.Packages {
		g.Go(func() error {
			_, err := c.cfg.Runner.Run(gctx, "", c.cfg.Interpreter, "-c", "import "+pkg)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.log.Debug("package not importable", "package", pkg, "error", err)
				missing[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("check packages: %w", err)
	}

	var out []string
	for i, m := range missing {
		if m {
			out = append(out, c.cfg.Packages[i])
		}
	}
	return out, nil
}

// RequirementsPath returns the resolved requirements file path.
func (c *Checker) RequirementsPath() string {
	if filepath.IsAbs(c.cfg.Requirements) {
		return c.cfg.Requirements
	}
	return filepath.Join(c.cfg.BackendDir, c.cfg.Requirements)
}

// Install runs pip against the requirements file.
func (c *Checker) Install(ctx context.Context) error {
	req := c.RequirementsPath()
	if err := fileutil.RequireFile(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}

	c.log.Info("installing dependencies", "requirements", req)
	out, err := c.cfg.Runner.Run(ctx, c.cfg.BackendDir, c.cfg.Interpreter, "-m", "pip", "install", "-r", req)
	if err != nil {
		c.log.Error("dependency installation failed", "requirements", req, "error", err)
		return fmt.Errorf("%w: %w\n%s", ErrInstallFailed, err, strings.TrimSpace(string(out)))
	}
	c.log.Info("dependencies installed")
	return nil
}

// Ensure checks the runtime and packages, installing and re-checking when
// anything is missing.
func (c *Checker) Ensure(ctx context.Context) error {
	if _, err := c.CheckRuntime(ctx); err != nil {
		return err
	}

	missing, err := c.MissingPackages(ctx)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		c.log.Info("all dependencies installed")
		return nil
	}

	c.log.Warn("missing dependencies", "packages", missing)
	if err := c.Install(ctx); err != nil {
		return err
	}

	missing, err = c.MissingPackages(ctx)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: still missing %s", ErrInstallFailed, strings.Join(missing, ", "))
	}
	return nil
}
