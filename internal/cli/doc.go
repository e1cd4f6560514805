// Package cli implements the demoup command line on top of cobra.
//
// Settings are layered: built-in defaults, then the optional YAML file, then
// flags that were set explicitly.
package cli
