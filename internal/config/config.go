package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the project root when no file is named.
const DefaultFileName = "demoup.yaml"

// File mirrors the YAML document. Pointer fields distinguish "not set" from
// a zero value.
type File struct {
	StartPort    *int           `yaml:"start_port"`
	Port         *int           `yaml:"port"`
	Backend      Backend        `yaml:"backend"`
	Frontend     *string        `yaml:"frontend"`
	LogDir       *string        `yaml:"log_dir"`
	LogLevel     *string        `yaml:"log_level"`
	LogFormat    *string        `yaml:"log_format"`
	ReadyTimeout *time.Duration `yaml:"ready_timeout"`
	StopTimeout  *time.Duration `yaml:"stop_timeout"`
	OpenBrowser  *bool          `yaml:"open_browser"`
	Checks       *bool          `yaml:"checks"`
	Lock         *bool          `yaml:"lock"`
}

// Backend groups the backend process settings.
type Backend struct {
	Dir     *string  `yaml:"dir"`
	Command *string  `yaml:"command"`
	Args    []string `yaml:"args"`
	EnvFile *string  `yaml:"env_file"`
}

// Load reads and strictly decodes path. Unknown keys are errors. An empty
// file yields an empty File.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOptional behaves like Load but returns an empty File and false when
// path does not exist.
func LoadOptional(path string) (File, bool, error) {
	f, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return File{}, false, nil
	}
	if err != nil {
		return File{}, false, err
	}
	return f, true, nil
}

// Parse decodes a YAML document.
func Parse(data []byte) (File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("parse config: %w", err)
	}
	return f, nil
}
