package core

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		StartPort:       8000,
		PortSearchLimit: 1000,
		BackendDir:      "backend",
		BackendCommand:  "python3",
		BackendArgs:     []string{"start_server.py"},
		FrontendAsset:   "ai-projects.html",
		LogDir:          "logs",
		ReadyTimeout:    3 * time.Second,
		StopTimeout:     10 * time.Second,
		ReapGracePeriod: 5 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("pinned port ignores search settings", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Port = 9000
		cfg.StartPort = 0
		cfg.PortSearchLimit = -1
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	tests := map[string]struct {
		modify       func(c *Config)
		wantContains string
	}{
		"zero start port": {
			modify:       func(c *Config) { c.StartPort = 0 },
			wantContains: "start port",
		},
		"start port too high": {
			modify:       func(c *Config) { c.StartPort = 70000 },
			wantContains: "start port",
		},
		"negative search limit": {
			modify:       func(c *Config) { c.PortSearchLimit = -1 },
			wantContains: "port search limit",
		},
		"pinned port out of range": {
			modify:       func(c *Config) { c.Port = 65536 },
			wantContains: "port must be between",
		},
		"empty backend dir": {
			modify:       func(c *Config) { c.BackendDir = "" },
			wantContains: "backend directory",
		},
		"empty backend command": {
			modify:       func(c *Config) { c.BackendCommand = "" },
			wantContains: "backend command",
		},
		"empty frontend": {
			modify:       func(c *Config) { c.FrontendAsset = "" },
			wantContains: "frontend asset",
		},
		"empty log dir": {
			modify:       func(c *Config) { c.LogDir = "" },
			wantContains: "log directory",
		},
		"zero ready timeout": {
			modify:       func(c *Config) { c.ReadyTimeout = 0 },
			wantContains: "ready timeout",
		},
		"negative stop timeout": {
			modify:       func(c *Config) { c.StopTimeout = -1 },
			wantContains: "stop timeout",
		},
		"zero reap grace": {
			modify:       func(c *Config) { c.ReapGracePeriod = 0 },
			wantContains: "reap grace period",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantContains) {
				t.Errorf("error %q does not contain %q", err, tc.wantContains)
			}
		})
	}

	t.Run("reports every violation", func(t *testing.T) {
		t.Parallel()
		err := Config{}.Validate()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		for _, want := range []string{"start port", "backend directory", "frontend asset", "stop timeout"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not contain %q", err, want)
			}
		}
	})
}
