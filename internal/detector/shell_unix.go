//go:build !windows

package detector

import "os/exec"

// getTrueCommand returns a command that always succeeds.
func getTrueCommand() *exec.Cmd {
	// #nosec G204
	return exec.Command("/bin/true")
}

// getShellCommand wraps cmdStr in a shell invocation.
func getShellCommand(cmdStr string) *exec.Cmd {
	// #nosec G204
	return exec.Command("/bin/sh", "-c", cmdStr)
}
