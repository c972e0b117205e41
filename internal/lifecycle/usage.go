package lifecycle

import (
	"fmt"
	"time"

	gproc "github.com/shirou/gopsutil/v4/process"
)

// Usage is a point-in-time resource snapshot of the running service process.
type Usage struct {
	PID        int       `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryRSS  uint64    `json:"memory_rss"`
	MemoryMB   float64   `json:"memory_mb"`
	NumThreads int32     `json:"num_threads"`
	StartedAt  time.Time `json:"started_at"`
}

// ProcessUsage collects CPU and memory figures for pid. Fields that the
// platform refuses to report are left zero rather than failing the whole
// snapshot.
func ProcessUsage(pid int) (Usage, error) {
	p, err := gproc.NewProcess(int32(pid))
	if err != nil {
		return Usage{}, fmt.Errorf("process %d: %w", pid, err)
	}
	u := Usage{PID: pid}
	if cpu, err := p.CPUPercent(); err == nil {
		u.CPUPercent = cpu
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		u.MemoryRSS = mem.RSS
		u.MemoryMB = float64(mem.RSS) / 1024 / 1024
	}
	if th, err := p.NumThreads(); err == nil {
		u.NumThreads = th
	}
	if ms, err := p.CreateTime(); err == nil && ms > 0 {
		u.StartedAt = time.UnixMilli(ms)
	}
	return u, nil
}
