// Package main is the entry point for the demoup launcher.
//
// All behavior lives in internal/cli; main only injects build information
// and turns the result into an exit code.
package main

import (
	"context"
	"os"

	"github.com/giantswarm/demoup/internal/cli"
)

// Set via ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
