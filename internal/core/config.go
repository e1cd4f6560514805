package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/demoup/internal/netutil"
)

// Config holds configuration for a Supervisor. All fields are immutable after
// construction via NewSupervisor.
type Config struct {
	// StartPort is where the free-port search begins.
	StartPort int

	// PortSearchLimit is how many ports past StartPort are tried.
	PortSearchLimit int

	// Port pins the port and skips the search. 0 means search.
	Port int

	BackendDir     string
	BackendCommand string
	BackendArgs    []string

	// BackendEnvFile is an optional dotenv file, relative to BackendDir.
	BackendEnvFile string

	// FrontendAsset is the HTML file opened in the browser.
	FrontendAsset string

	// LogDir receives the backend output captures and the run lock.
	LogDir string

	// ReadyTimeout bounds the wait for the backend to accept connections.
	// Running out of time is logged and startup continues.
	ReadyTimeout time.Duration

	// StopTimeout is the total time allowed for stopping the backend,
	// including the forced kill after the grace period.
	StopTimeout time.Duration

	// ReapGracePeriod is how long a stray process on the port gets to exit
	// before it is force killed.
	ReapGracePeriod time.Duration

	OpenBrowser bool
	UseRunLock  bool
}

// Validate checks all Config invariants and returns an error describing every
// violation found.
func (c Config) Validate() error {
	var errs []error

	if c.Port == 0 {
		if c.StartPort < 1 || c.StartPort > netutil.MaxPort {
			errs = append(errs, fmt.Errorf("start port must be between 1 and %d, got %d", netutil.MaxPort, c.StartPort))
		}
		if c.PortSearchLimit < 0 {
			errs = append(errs, fmt.Errorf("port search limit must not be negative, got %d", c.PortSearchLimit))
		}
	} else if c.Port < 1 || c.Port > netutil.MaxPort {
		errs = append(errs, fmt.Errorf("port must be between 1 and %d, got %d", netutil.MaxPort, c.Port))
	}
	if c.BackendDir == "" {
		errs = append(errs, errors.New("backend directory must not be empty"))
	}
	if c.BackendCommand == "" {
		errs = append(errs, errors.New("backend command must not be empty"))
	}
	if c.FrontendAsset == "" {
		errs = append(errs, errors.New("frontend asset must not be empty"))
	}
	if c.LogDir == "" {
		errs = append(errs, errors.New("log directory must not be empty"))
	}
	if c.ReadyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ready timeout must be greater than 0, got %s", c.ReadyTimeout))
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stop timeout must be greater than 0, got %s", c.StopTimeout))
	}
	if c.ReapGracePeriod <= 0 {
		errs = append(errs, fmt.Errorf("reap grace period must be greater than 0, got %s", c.ReapGracePeriod))
	}

	return errors.Join(errs...)
}
