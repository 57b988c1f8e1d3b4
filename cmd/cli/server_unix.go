//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

// detachFromTerminal puts the daemon in its own process group so it
// survives the CLI's terminal closing
func detachFromTerminal(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
