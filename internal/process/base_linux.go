//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr asks the kernel to send SIGTERM to the child when the
// launcher dies, so a killed launcher does not leave the backend holding the
// demo port.
func configureSysProcAttr(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Pdeathsig = syscall.SIGTERM
}
