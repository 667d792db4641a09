//go:build !unix

package exec

import "os/exec"

func configureKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
}
