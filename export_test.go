package demoup

import "time"

// ConfigSnapshot holds a copy of the resolved config for test assertions.
// Exported only via export_test.go so the _test package can verify option
// closures without reaching into internals.
type ConfigSnapshot struct {
	StartPort         int
	PortSearchLimit   int
	Port              int
	BackendDir        string
	BackendCommand    string
	BackendArgs       []string
	BackendEnvFile    string
	FrontendAsset     string
	LogDir            string
	ReadyTimeout      time.Duration
	StopTimeout       time.Duration
	ReapGracePeriod   time.Duration
	OpenBrowser       bool
	UseRunLock        bool
	Interpreter       string
	MinRuntimeVersion string
	RequiredPackages  []string
}

// ApplyOptionsForTesting applies opts to the defaults and returns the
// configuration as New and CheckEnvironment would see it.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := applyOptions(opts)
	c := cfg.toCoreConfig()
	e := cfg.toEnvironmentConfig()

	return ConfigSnapshot{
		StartPort:         c.StartPort,
		PortSearchLimit:   c.PortSearchLimit,
		Port:              c.Port,
		BackendDir:        c.BackendDir,
		BackendCommand:    c.BackendCommand,
		BackendArgs:       c.BackendArgs,
		BackendEnvFile:    c.BackendEnvFile,
		FrontendAsset:     c.FrontendAsset,
		LogDir:            c.LogDir,
		ReadyTimeout:      c.ReadyTimeout,
		StopTimeout:       c.StopTimeout,
		ReapGracePeriod:   c.ReapGracePeriod,
		OpenBrowser:       c.OpenBrowser,
		UseRunLock:        c.UseRunLock,
		Interpreter:       e.Interpreter,
		MinRuntimeVersion: e.MinVersion,
		RequiredPackages:  e.Packages,
	}
}
