package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/giantswarm/demoup/internal/fileutil"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// FileName is the log file created inside the log directory.
	FileName = "demo.log"

	// MaxSizeMB caps a single log file before it is rotated.
	MaxSizeMB = 10

	// MaxBackups is the number of rotated files kept.
	MaxBackups = 5
)

// Format selects the handler used for every sink.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures Setup.
type Options struct {
	Dir     string    // Directory for FileName; empty disables the file sink
	Level   string    // debug, info, warn or error (default info)
	Format  Format    // text (default) or json
	Console io.Writer // Defaults to os.Stdout
}

// ParseLevel converts a level name into a slog.Level. It accepts the same
// names as slog.Level.UnmarshalText, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

// Setup creates the logger. The returned io.Closer closes the rotating file
// and must be called on shutdown; it is a no-op when no file sink exists.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	out := console
	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		if err := fileutil.EnsureDir(opts.Dir); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    MaxSizeMB,
			MaxBackups: MaxBackups,
		}
		out = io.MultiWriter(console, file)
		closer = file
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch opts.Format {
	case "", FormatText:
		h = slog.NewTextHandler(out, handlerOpts)
	case FormatJSON:
		h = slog.NewJSONHandler(out, handlerOpts)
	default:
		_ = closer.Close()
		return nil, nil, errors.New("invalid log format " + string(opts.Format) + ": want text or json")
	}
	return slog.New(h), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
