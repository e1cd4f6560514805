package demoup

import (
	"fmt"
	"slices"
	"time"
)

// maxPort is the highest TCP port number.
const maxPort = 65535

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("demoup: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("demoup: %s must not be empty", name))
	}
}

// requirePort panics if port is not a valid TCP port.
func requirePort(name string, port int) {
	if port < 1 || port > maxPort {
		panic(fmt.Sprintf("demoup: %s must be between 1 and %d, got %d", name, maxPort, port))
	}
}

// Option configures a session during construction via New or
// CheckEnvironment.
//
// With* functions panic on invalid input (empty paths, non-positive
// durations, out-of-range ports). Option values are normally constants or
// already-validated flags, so an invalid value is a programmer error.
type Option func(*config)

// WithRoot sets the directory that relative backend, frontend and log paths
// are resolved against.
//
// Default: the working directory.
//
// Panics if dir is empty.
func WithRoot(dir string) Option {
	requireNonEmpty("root directory", dir)
	return func(c *config) {
		c.Root = dir
	}
}

// WithStartPort sets where the free-port search begins.
//
// Default: 8000.
//
// Panics if port is outside 1-65535.
func WithStartPort(port int) Option {
	requirePort("start port", port)
	return func(c *config) {
		c.StartPort = port
	}
}

// WithPortSearchLimit sets how many ports past the start port are tried.
// A limit of 0 tries only the start port.
//
// Default: 1000.
//
// Panics if limit < 0.
func WithPortSearchLimit(limit int) Option {
	if limit < 0 {
		panic(fmt.Sprintf("demoup: port search limit must not be negative, got %d", limit))
	}
	return func(c *config) {
		c.PortSearchLimit = limit
	}
}

// WithPort pins the backend port and skips the search. Whatever still holds
// the port when Run starts is terminated.
//
// Panics if port is outside 1-65535.
func WithPort(port int) Option {
	requirePort("port", port)
	return func(c *config) {
		c.Port = port
	}
}

// WithBackendDir sets the backend's working directory.
// Panics if dir is empty.
func WithBackendDir(dir string) Option {
	requireNonEmpty("backend directory", dir)
	return func(c *config) {
		c.BackendDir = dir
	}
}

// WithBackendCommand sets the executable that runs the backend. Bare names
// are looked up in PATH; relative paths are resolved against the backend
// directory. The same command is checked by CheckEnvironment.
//
// Default: "python3".
//
// Panics if command is empty.
func WithBackendCommand(command string) Option {
	requireNonEmpty("backend command", command)
	return func(c *config) {
		c.BackendCommand = command
	}
}

// WithBackendArgs replaces the backend command's arguments.
//
// Default: ["start_server.py"].
func WithBackendArgs(args ...string) Option {
	args = slices.Clone(args)
	return func(c *config) {
		c.BackendArgs = args
	}
}

// WithBackendEnvFile sets the dotenv file merged into the backend's
// environment, relative to the backend directory. An empty name disables it.
//
// Default: ".env".
func WithBackendEnvFile(name string) Option {
	return func(c *config) {
		c.BackendEnvFile = name
	}
}

// WithFrontendAsset sets the HTML file opened in the browser.
// Panics if path is empty.
func WithFrontendAsset(path string) Option {
	requireNonEmpty("frontend asset", path)
	return func(c *config) {
		c.FrontendAsset = path
	}
}

// WithLogDir sets where backend output captures and the run lock live.
// Panics if dir is empty.
func WithLogDir(dir string) Option {
	requireNonEmpty("log directory", dir)
	return func(c *config) {
		c.LogDir = dir
	}
}

// WithReadyTimeout sets how long startup waits for the backend port to
// accept connections. When it runs out a warning is logged and the browser
// is opened anyway.
//
// Default: 3 seconds.
//
// Panics if d <= 0.
func WithReadyTimeout(d time.Duration) Option {
	requirePositive("ready timeout", d)
	return func(c *config) {
		c.ReadyTimeout = d
	}
}

// WithStopTimeout sets the total time allowed for stopping the backend.
//
// Default: 10 seconds.
//
// Panics if d <= 0.
func WithStopTimeout(d time.Duration) Option {
	requirePositive("stop timeout", d)
	return func(c *config) {
		c.StopTimeout = d
	}
}

// WithReapGracePeriod sets how long a stray process on the port gets to exit
// before it is force killed.
//
// Default: 5 seconds.
//
// Panics if d <= 0.
func WithReapGracePeriod(d time.Duration) Option {
	requirePositive("reap grace period", d)
	return func(c *config) {
		c.ReapGracePeriod = d
	}
}

// WithOpenBrowser controls whether the frontend is opened. When disabled
// its URL is logged instead.
//
// Default: true.
func WithOpenBrowser(open bool) Option {
	return func(c *config) {
		c.OpenBrowser = open
	}
}

// WithRunLock controls the single-instance lock in the log directory.
//
// Default: true.
func WithRunLock(enabled bool) Option {
	return func(c *config) {
		c.UseRunLock = enabled
	}
}

// WithMinRuntimeVersion sets the oldest interpreter version CheckEnvironment
// accepts, e.g. "3.10".
// Panics if v is empty.
func WithMinRuntimeVersion(v string) Option {
	requireNonEmpty("minimum runtime version", v)
	return func(c *config) {
		c.MinRuntimeVersion = v
	}
}

// WithRequiredPackages replaces the packages CheckEnvironment verifies.
// Panics if any name is empty.
func WithRequiredPackages(pkgs ...string) Option {
	for _, p := range pkgs {
		requireNonEmpty("package name", p)
	}
	pkgs = slices.Clone(pkgs)
	return func(c *config) {
		c.RequiredPackages = pkgs
	}
}
