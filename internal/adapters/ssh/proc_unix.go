//go:build unix

package ssh

import (
	"os/exec"
	"syscall"
)

// isolate puts the client in its own process group so cancellation also reaches
// anything it started, such as a ProxyCommand.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
