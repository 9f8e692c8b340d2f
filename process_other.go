//go:build !unix

package main

import (
	"errors"
	"os"
	"os/exec"
)

var errNoProcessGroups = errors.New("process groups not supported")

func setProcessGroup(cmd *exec.Cmd) {}

func terminateGroup(pid int) error {
	return errNoProcessGroups
}

func killGroup(pid int) error {
	return errNoProcessGroups
}

func terminateProcess(p *os.Process) error {
	return p.Kill()
}
