package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/giantswarm/demoup"
	"github.com/giantswarm/demoup/internal/config"
	"github.com/giantswarm/demoup/internal/logging"
	"github.com/spf13/cobra"
)

// Build information, set by main from ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Exit codes returned by Execute.
const (
	ExitOK    = 0
	ExitError = 1
)

// flags holds the raw flag values of one command instance.
type flags struct {
	root         string
	configPath   string
	startPort    int
	port         int
	backendDir   string
	backendCmd   string
	backendEntry []string
	envFile      string
	frontend     string
	logDir       string
	logLevel     string
	logFormat    string
	readyTimeout string
	stopTimeout  string
	noBrowser    bool
	skipChecks   bool
	noLock       bool
}

// runFunc drives one session with fully resolved settings.
type runFunc func(ctx context.Context, stdout io.Writer, s settings) error

// NewRootCommand creates the demoup command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(run)
}

func newRootCommand(runSession runFunc) *cobra.Command {
	f := &flags{}
	def := defaultSettings()

	cmd := &cobra.Command{
		Use:   "demoup",
		Short: "Start the demo backend and open its frontend",
		Long: `demoup picks a free port, clears stray processes off it, starts the
backend with PORT set, opens the frontend in the default browser and keeps
running until interrupted. Ctrl+C stops the backend gracefully.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolveSettings(cmd, f)
			if err != nil {
				return err
			}
			return runSession(cmd.Context(), cmd.OutOrStdout(), s)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.root, "root", def.Root, "project root that relative paths are resolved against")
	fl.StringVar(&f.configPath, "config", "", "YAML settings file (default <root>/"+config.DefaultFileName+" if present)")
	fl.IntVar(&f.startPort, "start-port", def.StartPort, "first port tried by the free-port search")
	fl.IntVar(&f.port, "port", 0, "use this port instead of searching (stray processes on it are terminated)")
	fl.StringVar(&f.backendDir, "backend-dir", def.BackendDir, "backend working directory")
	fl.StringVar(&f.backendCmd, "backend-cmd", def.BackendCmd, "interpreter or binary that runs the backend")
	fl.StringSliceVar(&f.backendEntry, "backend-entry", def.BackendArgs, "arguments passed to the backend command")
	fl.StringVar(&f.envFile, "env-file", def.EnvFile, "dotenv file inside the backend directory (empty to disable)")
	fl.StringVar(&f.frontend, "frontend", def.Frontend, "HTML file opened in the browser")
	fl.StringVar(&f.logDir, "log-dir", def.LogDir, "directory for demo.log, backend output and the run lock")
	fl.StringVar(&f.logLevel, "log-level", def.LogLevel, "debug, info, warn or error")
	fl.StringVar(&f.logFormat, "log-format", def.LogFormat, "text or json")
	fl.StringVar(&f.readyTimeout, "ready-timeout", def.ReadyTimeout.String(), "how long to wait for the backend port before opening the browser anyway")
	fl.StringVar(&f.stopTimeout, "stop-timeout", def.StopTimeout.String(), "total time allowed for stopping the backend")
	fl.BoolVar(&f.noBrowser, "no-browser", false, "log the frontend URL instead of opening it")
	fl.BoolVar(&f.skipChecks, "skip-checks", false, "skip the runtime and dependency checks")
	fl.BoolVar(&f.noLock, "no-lock", false, "allow several launchers to share the log directory")

	return cmd
}

// Execute runs the command with args and returns the process exit code.
// Panics inside the command are reported and turned into ExitError.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, NewRootCommand(), args, stdout, stderr)
}

func execute(ctx context.Context, cmd *cobra.Command, args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "Error: unexpected failure: %v\n", r)
			code = ExitError
		}
	}()

	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitOK
}

// resolveSettings layers defaults, the settings file and explicitly set flags.
func resolveSettings(cmd *cobra.Command, f *flags) (settings, error) {
	s := defaultSettings()
	s.Root = f.root

	file, err := loadConfigFile(f.root, f.configPath)
	if err != nil {
		return settings{}, err
	}
	s.applyFile(file)

	fl := cmd.Flags()
	changed := fl.Changed
	if changed("start-port") {
		s.StartPort = f.startPort
	}
	if changed("port") {
		s.Port = f.port
	}
	if changed("backend-dir") {
		s.BackendDir = f.backendDir
	}
	if changed("backend-cmd") {
		s.BackendCmd = f.backendCmd
	}
	if changed("backend-entry") {
		s.BackendArgs = f.backendEntry
	}
	if changed("env-file") {
		s.EnvFile = f.envFile
	}
	if changed("frontend") {
		s.Frontend = f.frontend
	}
	if changed("log-dir") {
		s.LogDir = f.logDir
	}
	if changed("log-level") {
		s.LogLevel = f.logLevel
	}
	if changed("log-format") {
		s.LogFormat = f.logFormat
	}
	if changed("ready-timeout") {
		if s.ReadyTimeout, err = parseDuration("ready-timeout", f.readyTimeout); err != nil {
			return settings{}, err
		}
	}
	if changed("stop-timeout") {
		if s.StopTimeout, err = parseDuration("stop-timeout", f.stopTimeout); err != nil {
			return settings{}, err
		}
	}
	if f.noBrowser {
		s.OpenBrowser = false
	}
	if f.skipChecks {
		s.Checks = false
	}
	if f.noLock {
		s.Lock = false
	}

	if err := s.validate(); err != nil {
		return settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

func loadConfigFile(root, path string) (config.File, error) {
	if path != "" {
		return config.Load(path)
	}
	f, _, err := config.LoadOptional(filepath.Join(root, config.DefaultFileName))
	return f, err
}

// run sets up logging and drives one demo session. A signal-driven shutdown
// is a success.
func run(parent context.Context, stdout io.Writer, s settings) error {
	logger, closer, err := logging.Setup(logging.Options{
		Dir:     s.logDir(),
		Level:   s.LogLevel,
		Format:  logging.Format(s.LogFormat),
		Console: stdout,
	})
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer closer.Close()
	demoup.SetLogger(logger)
	defer demoup.SetLogger(nil)

	ctx, stop := demoup.NotifyContext(parent)
	defer stop()

	logger.Info("starting demo", "root", s.Root)
	opts := s.options()

	if s.Checks {
		if err := demoup.CheckEnvironment(ctx, opts...); err != nil {
			if errors.Is(context.Cause(ctx), demoup.ErrSignalReceived) {
				return nil
			}
			logger.Error("environment check failed", "error", err)
			return err
		}
	}

	sup, err := demoup.New(opts...)
	if err != nil {
		logger.Error("failed to prepare demo", "error", err)
		return err
	}
	if err := sup.Run(ctx); err != nil {
		logger.Error("demo failed", "error", err)
		return err
	}
	return nil
}

func parseDuration(flag, v string) (d time.Duration, err error) {
	d, err = time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", flag, err)
	}
	return d, nil
}
