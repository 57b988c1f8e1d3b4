//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// detachFromTerminal starts the daemon in its own process group so console
// signals aimed at the CLI do not reach it
func detachFromTerminal(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
