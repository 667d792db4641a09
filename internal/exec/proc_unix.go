//go:build unix

package exec

import (
	"os/exec"
	"syscall"
)

// configureKill puts the child in its own process group so a timeout kills
// anything it spawned, and keeps terminal signals meant for the TUI away from it.
func configureKill(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
