// SPDX-License-Identifier: MPL-2.0

//go:build unix

package runtime

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureProcess starts the tool in its own process group and kills the
// whole group on cancellation, so helpers the tool spawned (hx-adl runs node
// from a shell script) do not outlive it while holding its output pipes.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
