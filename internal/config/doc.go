// Package config reads the optional YAML settings file. Values found in the
// file override built-in defaults and are themselves overridden by flags.
package config
