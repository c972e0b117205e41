package detector

import (
	"fmt"

	gnet "github.com/shirou/gopsutil/v4/net"
)

// PIDOfPort returns the PID of the process holding a TCP listening socket on
// the given port, or 0 when nothing listens there. Listeners whose owning PID
// cannot be resolved (other users' processes on restricted systems) are
// skipped rather than reported.
func PIDOfPort(port int) (int, error) {
	conns, err := gnet.Connections("tcp")
	if err != nil {
		return 0, fmt.Errorf("list tcp connections: %w", err)
	}
	for _, c := range conns {
		if c.Status != "LISTEN" {
			continue
		}
		if int(c.Laddr.Port) == port && c.Pid > 0 {
			return int(c.Pid), nil
		}
	}
	return 0, nil
}

// PortDetector detects the service by the TCP port it binds. Unlike
// PIDOfPort it counts listeners whose owning PID cannot be named, so it
// answers "is the port held" rather than "by whom".
type PortDetector struct{ Port int }

func (d PortDetector) Alive() (bool, error) {
	conns, err := gnet.Connections("tcp")
	if err != nil {
		return false, fmt.Errorf("list tcp connections: %w", err)
	}
	for _, c := range conns {
		if c.Status == "LISTEN" && int(c.Laddr.Port) == d.Port {
			return true, nil
		}
	}
	return false, nil
}

func (d PortDetector) Describe() string { return fmt.Sprintf("port:%d", d.Port) }
