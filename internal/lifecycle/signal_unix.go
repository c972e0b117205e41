//go:build !windows

package lifecycle

import (
	"errors"
	"os/exec"
	"syscall"
)

// detachAttrs configures the launched service to run in its own session so it
// survives the controller exiting and has no controlling terminal.
func detachAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// terminate requests graceful shutdown. The service runs as a session leader,
// so signaling the negated PID reaches its whole process group.
func terminate(pid int) error {
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return syscall.Kill(pid, syscall.SIGTERM)
	}
	return nil
}

// forceKill escalates to SIGKILL against the whole process group.
func forceKill(pid int) error {
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return syscall.Kill(pid, syscall.SIGKILL)
	}
	return nil
}
