//go:build !linux

package process

import "os/exec"

// configureSysProcAttr is a no-op outside Linux; parent-death signals are a
// Linux kernel feature.
func configureSysProcAttr(_ *exec.Cmd) {}
