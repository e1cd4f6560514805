package frontend

import (
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/giantswarm/demoup/internal/fileutil"
	"github.com/giantswarm/demoup/internal/sentinel"
	"github.com/skratchdot/open-golang/open"
)

// ErrAssetNotFound is returned by Open when the frontend file is missing or
// is a directory. No browser is started.
const ErrAssetNotFound = sentinel.Error("frontend asset not found")

// Opener hands a URL to the operating system.
type Opener func(input string) error

// Config holds the configuration for a Launcher.
type Config struct {
	Asset   string // Path of the HTML entry point
	Enabled bool   // When false, Launch only logs the URL
	Opener  Opener // Defaults to open.Run
	Logger  *slog.Logger
}

// Launcher opens the frontend asset in a browser.
type Launcher struct {
	asset   string
	enabled bool
	opener  Opener
	log     *slog.Logger
}

// New creates a Launcher. Panics if cfg.Asset is empty.
func New(cfg Config) *Launcher {
	if cfg.Asset == "" {
		panic("demoup: frontend asset must not be empty")
	}
	if cfg.Opener == nil {
		cfg.Opener = open.Run
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Launcher{asset: cfg.Asset, enabled: cfg.Enabled, opener: cfg.Opener, log: cfg.Logger}
}

// URL returns the file:// URL of the asset.
func (l *Launcher) URL() (string, error) {
	abs, err := filepath.Abs(l.asset)
	if err != nil {
		return "", fmt.Errorf("resolve frontend path: %w", err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// Open checks that the asset is a regular file and asks the OS to open it.
func (l *Launcher) Open() error {
	if err := fileutil.RequireFile(l.asset); err != nil {
		l.log.Error("frontend file not found", "path", l.asset, "error", err)
		return fmt.Errorf("%w: %w", ErrAssetNotFound, err)
	}
	u, err := l.URL()
	if err != nil {
		l.log.Error("failed to open frontend", "path", l.asset, "error", err)
		return err
	}
	if err := l.opener(u); err != nil {
		l.log.Error("failed to open frontend", "url", u, "error", err)
		return fmt.Errorf("open %s: %w", u, err)
	}
	l.log.Info("frontend opened in browser", "url", u)
	return nil
}

// Launch opens the asset on a goroutine that is never joined. Its outcome is
// visible only in the log. A disabled Launcher logs the URL instead.
func (l *Launcher) Launch() {
	if !l.enabled {
		u, err := l.URL()
		if err != nil {
			u = l.asset
		}
		l.log.Info("browser launch disabled; open the frontend manually", "url", u)
		return
	}
	go func() {
		_ = l.Open() // logged by Open
	}()
}
