//go:build !unix

package executor

import (
	"os/exec"
)

func shellArgs(command string) []string {
	return []string{"cmd.exe", "/d", "/s", "/c", command}
}

// setProcessGroup keeps exec's default cancellation, which kills only the
// direct child.
func setProcessGroup(*exec.Cmd) {}
