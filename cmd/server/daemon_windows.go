//go:build windows

package main

import (
	"os"
	"os/exec"
	"syscall"
)

// spawnDetached starts path in its own process group
func spawnDetached(path string, args []string) (int, error) {
	cmd := exec.Command(path, args...)
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	return cmd.Process.Pid, nil
}
