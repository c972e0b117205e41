//go:build windows

package lifecycle

import (
	"os/exec"
	"strconv"
	"syscall"
)

var (
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess      = kernel32.NewProc("OpenProcess")
	procTerminateProcess = kernel32.NewProc("TerminateProcess")
	procCloseHandle      = kernel32.NewProc("CloseHandle")
)

const processTerminate = 0x0001

// detachAttrs configures the launched service as a detached background
// process with no console window.
func detachAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x08000000, // CREATE_NO_WINDOW
	}
}

// terminate on Windows has no graceful signal for detached GUI-less
// processes; both steps use TerminateProcess, and the taskkill fallback
// covers the process tree.
func terminate(pid int) error { return killByHandle(pid) }

// forceKill terminates the process and, via taskkill /T, its child tree.
func forceKill(pid int) error {
	// #nosec G204 -- pid is numeric
	_ = exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run()
	return killByHandle(pid)
}

func killByHandle(pid int) error {
	if pid <= 0 {
		return nil
	}
	ret, _, err := procOpenProcess.Call(uintptr(processTerminate), 0, uintptr(uint32(pid)))
	if ret == 0 {
		// Cannot open: the process likely exited already.
		return nil
	}
	h := syscall.Handle(ret)
	defer func() { _, _, _ = procCloseHandle.Call(uintptr(h)) }()
	r, _, terr := procTerminateProcess.Call(uintptr(h), uintptr(1))
	if r == 0 {
		return terr
	}
	_ = err
	return nil
}
