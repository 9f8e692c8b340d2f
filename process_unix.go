//go:build unix

package main

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own process group so helpers it
// spawns are terminated with it
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

func killGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}

func terminateProcess(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
