package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/giantswarm/demoup"
	"github.com/giantswarm/demoup/internal/config"
	"github.com/giantswarm/demoup/internal/logging"
)

// settings is the fully merged configuration of one invocation.
type settings struct {
	Root         string
	StartPort    int
	Port         int
	BackendDir   string
	BackendCmd   string
	BackendArgs  []string
	EnvFile      string
	Frontend     string
	LogDir       string
	LogLevel     string
	LogFormat    string
	ReadyTimeout time.Duration
	StopTimeout  time.Duration
	OpenBrowser  bool
	Checks       bool
	Lock         bool
}

func defaultSettings() settings {
	return settings{
		Root:         ".",
		StartPort:    demoup.DefaultStartPort,
		BackendDir:   demoup.DefaultBackendDir,
		BackendCmd:   demoup.DefaultBackendCommand,
		BackendArgs:  []string{demoup.DefaultBackendEntry},
		EnvFile:      demoup.DefaultBackendEnvFile,
		Frontend:     demoup.DefaultFrontendAsset,
		LogDir:       demoup.DefaultLogDir,
		LogLevel:     "info",
		LogFormat:    string(logging.FormatText),
		ReadyTimeout: demoup.DefaultReadyTimeout,
		StopTimeout:  demoup.DefaultStopTimeout,
		OpenBrowser:  true,
		Checks:       true,
		Lock:         true,
	}
}

// applyFile overlays every value set in f.
func (s *settings) applyFile(f config.File) {
	setIf(&s.StartPort, f.StartPort)
	setIf(&s.Port, f.Port)
	setIf(&s.BackendDir, f.Backend.Dir)
	setIf(&s.BackendCmd, f.Backend.Command)
	if f.Backend.Args != nil {
		s.BackendArgs = slices.Clone(f.Backend.Args)
	}
	setIf(&s.EnvFile, f.Backend.EnvFile)
	setIf(&s.Frontend, f.Frontend)
	setIf(&s.LogDir, f.LogDir)
	setIf(&s.LogLevel, f.LogLevel)
	setIf(&s.LogFormat, f.LogFormat)
	setIf(&s.ReadyTimeout, f.ReadyTimeout)
	setIf(&s.StopTimeout, f.StopTimeout)
	setIf(&s.OpenBrowser, f.OpenBrowser)
	setIf(&s.Checks, f.Checks)
	setIf(&s.Lock, f.Lock)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// validate reports every invalid value so the options built from s cannot
// panic.
func (s settings) validate() error {
	var errs []error
	if s.Root == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	if s.StartPort < 1 || s.StartPort > 65535 {
		errs = append(errs, fmt.Errorf("start port must be between 1 and 65535, got %d", s.StartPort))
	}
	if s.Port < 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535 (0 to search), got %d", s.Port))
	}
	for name, v := range map[string]string{
		"backend dir":     s.BackendDir,
		"backend command": s.BackendCmd,
		"frontend":        s.Frontend,
		"log dir":         s.LogDir,
	} {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", name))
		}
	}
	if s.ReadyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ready timeout must be greater than 0, got %s", s.ReadyTimeout))
	}
	if s.StopTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stop timeout must be greater than 0, got %s", s.StopTimeout))
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch logging.Format(s.LogFormat) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", s.LogFormat))
	}
	return errors.Join(errs...)
}

// logDir returns the log directory resolved against the root.
func (s settings) logDir() string {
	if filepath.IsAbs(s.LogDir) {
		return s.LogDir
	}
	return filepath.Join(s.Root, s.LogDir)
}

// options converts s into demoup options. Call validate first.
func (s settings) options() []demoup.Option {
	opts := []demoup.Option{
		demoup.WithRoot(s.Root),
		demoup.WithStartPort(s.StartPort),
		demoup.WithBackendDir(s.BackendDir),
		demoup.WithBackendCommand(s.BackendCmd),
		demoup.WithBackendArgs(s.BackendArgs...),
		demoup.WithBackendEnvFile(s.EnvFile),
		demoup.WithFrontendAsset(s.Frontend),
		demoup.WithLogDir(s.LogDir),
		demoup.WithReadyTimeout(s.ReadyTimeout),
		demoup.WithStopTimeout(s.StopTimeout),
		demoup.WithOpenBrowser(s.OpenBrowser),
		demoup.WithRunLock(s.Lock),
	}
	if s.Port != 0 {
		opts = append(opts, demoup.WithPort(s.Port))
	}
	return opts
}
