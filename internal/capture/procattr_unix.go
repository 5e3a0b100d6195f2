//go:build unix

package capture

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// killProcessGroup starts the command as a process group leader and makes
// cancellation kill the whole group, so background children do not keep the
// pipes open.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
