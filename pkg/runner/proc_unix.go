//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// killGroup puts the child in its own process group so that a deadline kill
// also reaches anything it spawned (shell wrappers, compiler drivers).
func killGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
