package detector

// Detector is a strategy that determines if the wrapped service is running.
// Implementations may probe the bound TCP port, a PID file, or a custom script.
// It must be safe for concurrent use.
type Detector interface {
	// Alive returns true if the service is detected as running.
	Alive() (bool, error)
	// Describe returns a human-readable description of the detection method.
	Describe() string
}
