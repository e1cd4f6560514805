package demoup

import "time"

// Default configuration values for New. These constants are exported so
// callers can build custom configurations relative to them.
const (
	// DefaultStartPort is where the free-port search begins.
	DefaultStartPort = 8000

	// DefaultPortSearchLimit is how many ports past the start port are tried
	// before New gives up with ErrPortExhausted.
	DefaultPortSearchLimit = 1000

	// DefaultBackendDir is the backend's working directory, relative to the root.
	DefaultBackendDir = "backend"

	// DefaultBackendCommand is the interpreter that runs the backend.
	DefaultBackendCommand = "python3"

	// DefaultBackendEntry is the script passed to the backend command.
	DefaultBackendEntry = "start_server.py"

	// DefaultBackendEnvFile is the optional dotenv file inside the backend
	// directory. A missing file is ignored.
	DefaultBackendEnvFile = ".env"

	// DefaultFrontendAsset is the page opened in the browser, relative to the root.
	DefaultFrontendAsset = "ai-projects.html"

	// DefaultLogDir receives the backend output captures and the run lock.
	DefaultLogDir = "logs"

	// DefaultReadyTimeout is how long startup waits for the backend to accept
	// connections before opening the browser anyway.
	DefaultReadyTimeout = 3 * time.Second

	// DefaultStopTimeout is the total time allowed for stopping the backend.
	// SIGKILL follows SIGTERM after at most 5 seconds.
	DefaultStopTimeout = 10 * time.Second

	// DefaultReapGracePeriod is how long a stray process on the port gets to
	// exit before it is force killed.
	DefaultReapGracePeriod = 5 * time.Second

	// DefaultMinRuntimeVersion is the oldest interpreter CheckEnvironment accepts.
	DefaultMinRuntimeVersion = "3.8"
)

// DefaultRequiredPackages returns the packages CheckEnvironment verifies.
func DefaultRequiredPackages() []string {
	return []string{"fastapi", "uvicorn"}
}
