package lifecycle

import "github.com/loykin/docserve/internal/detector"

// ProcessTable answers which process currently holds a TCP listening port.
// The production table queries the OS; tests substitute a fake so the
// controller's retry loops can be exercised without real processes.
type ProcessTable interface {
	// PIDOfPort returns the listener's PID, or 0 when the port is free.
	PIDOfPort(port int) (int, error)
}

// OSTable is the production ProcessTable backed by OS connection enumeration.
type OSTable struct{}

func (OSTable) PIDOfPort(port int) (int, error) { return detector.PIDOfPort(port) }
