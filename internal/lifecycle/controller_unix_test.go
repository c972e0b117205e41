//go:build !windows

package lifecycle

import (
	"context"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

func TestStopTerminatesListener(t *testing.T) {
	requireUnix(t)
	cmd := exec.Command("sleep", "30")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start child: %v", err)
	}
	pid := cmd.Process.Pid
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	// The child holds the port on the first lookup and is gone on the next.
	table := &fakeTable{pids: []int{pid, 0}}
	c := New(Config{Port: 9000, StopWait: 5 * time.Second},
		WithTable(table), WithClock(&fakeClock{now: time.Now()}))

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// The real child must have received the termination signal.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if err := syscall.Kill(pid, 0); err == syscall.ESRCH {
			return
		}
		// Reap so the PID does not linger as a zombie.
		if err := cmd.Wait(); err != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("child %d still alive after stop", pid)
}

func TestStopEscalatesToKill(t *testing.T) {
	requireUnix(t)
	// Trap-ignoring child: graceful termination is refused, the forced kill
	// in the escalation path must take it down.
	cmd := exec.Command("sh", "-c", `trap '' TERM; sleep 30`)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start child: %v", err)
	}
	pid := cmd.Process.Pid
	t.Cleanup(func() {
		_ = syscall.Kill(-pid, syscall.SIGKILL)
		_, _ = cmd.Process.Wait()
	})

	// Port stays held through the graceful window, then frees after the kill.
	held := []int{pid}
	for i := 0; i < 4; i++ {
		held = append(held, pid)
	}
	held = append(held, 0)
	c := New(Config{Port: 9000, StopWait: 2 * time.Second},
		WithTable(&fakeTable{pids: held}), WithClock(&fakeClock{now: time.Now()}))

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
