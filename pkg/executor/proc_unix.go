//go:build unix

package executor

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func shellArgs(command string) []string {
	return []string{"/bin/sh", "-c", command}
}

// setProcessGroup starts the child in a new process group and makes context
// cancellation kill the whole group, so commands the shell spawned die with
// it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		if errors.Is(err, unix.ESRCH) {
			return nil
		}

		return err
	}
}
