package demoup

import (
	"path/filepath"
	"slices"

	"github.com/giantswarm/demoup/internal/core"
)

// config holds the configuration assembled by options. It embeds
// core.Config, keeping internal types out of the public API, and adds the
// settings that only matter before a Supervisor exists.
type config struct {
	core.Config

	Root              string
	MinRuntimeVersion string
	RequiredPackages  []string
}

// defaultConfig returns a config populated with all default values.
func defaultConfig() config {
	return config{
		Config: core.Config{
			StartPort:       DefaultStartPort,
			PortSearchLimit: DefaultPortSearchLimit,
			BackendDir:      DefaultBackendDir,
			BackendCommand:  DefaultBackendCommand,
			BackendArgs:     []string{DefaultBackendEntry},
			BackendEnvFile:  DefaultBackendEnvFile,
			FrontendAsset:   DefaultFrontendAsset,
			LogDir:          DefaultLogDir,
			ReadyTimeout:    DefaultReadyTimeout,
			StopTimeout:     DefaultStopTimeout,
			ReapGracePeriod: DefaultReapGracePeriod,
			OpenBrowser:     true,
			UseRunLock:      true,
		},
		Root:              ".",
		MinRuntimeVersion: DefaultMinRuntimeVersion,
		RequiredPackages:  DefaultRequiredPackages(),
	}
}

// resolve joins p to the root unless it is absolute.
func (c config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// toCoreConfig returns the core configuration with every path resolved
// against the root.
func (c config) toCoreConfig() core.Config {
	out := c.Config
	out.BackendDir = c.resolve(c.BackendDir)
	out.FrontendAsset = c.resolve(c.FrontendAsset)
	out.LogDir = c.resolve(c.LogDir)
	out.BackendArgs = slices.Clone(c.BackendArgs)
	return out
}

// toEnvironmentConfig returns the configuration for CheckEnvironment. The
// backend command doubles as the interpreter being checked.
func (c config) toEnvironmentConfig() core.EnvironmentConfig {
	return core.EnvironmentConfig{
		Interpreter: c.BackendCommand,
		MinVersion:  c.MinRuntimeVersion,
		BackendDir:  c.resolve(c.BackendDir),
		Packages:    slices.Clone(c.RequiredPackages),
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
