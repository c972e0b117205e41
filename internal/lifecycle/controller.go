package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/loykin/docserve/internal/detector"
	"github.com/loykin/docserve/internal/logger"
	"github.com/loykin/docserve/internal/metrics"
)

// Sentinel errors returned by Start/Stop. ErrNotRunning is informational:
// stopping an already-stopped service is not a failure.
var (
	ErrNotRunning   = errors.New("service not running")
	ErrBindTimeout  = errors.New("service did not bind port within the wait window")
	ErrStillRunning = errors.New("service still running after forced termination")
)

// Default timing for the start and stop polling loops.
const (
	DefaultStartWait    = 15 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
	DefaultStopWait     = 30 * time.Second
	DefaultStopInterval = time.Second
)

// Config describes the wrapped service and how to supervise it.
type Config struct {
	Command   string        `json:"command" mapstructure:"command"`       // service command line
	Args      []string      `json:"args" mapstructure:"args"`             // explicit argv; bypasses command-line splitting
	WorkDir   string        `json:"work_dir" mapstructure:"work_dir"`     // optional working dir
	Env       []string      `json:"env" mapstructure:"env"`               // optional extra env (KEY=VALUE)
	Port      int           `json:"port" mapstructure:"port"`             // TCP port the service binds; source of truth for liveness
	PIDFile   string        `json:"pid_file" mapstructure:"pid_file"`     // optional; fallback when the port table hides PIDs
	Check     string        `json:"health_check" mapstructure:"health_check"` // optional command that exits zero once healthy
	OutputDir string        `json:"output_dir" mapstructure:"output_dir"` // parse output dir, created before start
	StartWait time.Duration `json:"start_wait" mapstructure:"start_wait"` // deadline for the port to be bound
	StopWait  time.Duration `json:"stop_wait" mapstructure:"stop_wait"`   // graceful window before SIGKILL
	Log       logger.Config `json:"log" mapstructure:"log"`
}

// Controller starts and stops the service process, treating the bound TCP
// port as the sole source of truth for "is it running". It keeps no state
// between invocations other than its log files.
type Controller struct {
	cfg      Config
	table    ProcessTable
	clock    Clock
	poll     time.Duration
	stopPoll time.Duration
	log      *slog.Logger
}

// Option tailors a Controller; used by tests to inject fakes.
type Option func(*Controller)

func WithTable(t ProcessTable) Option { return func(c *Controller) { c.table = t } }
func WithClock(k Clock) Option        { return func(c *Controller) { c.clock = k } }
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithPollIntervals overrides the start and stop poll cadence.
func WithPollIntervals(start, stop time.Duration) Option {
	return func(c *Controller) {
		if start > 0 {
			c.poll = start
		}
		if stop > 0 {
			c.stopPoll = stop
		}
	}
}

// New builds a Controller. When the log dir is configured, lifecycle events
// are appended to the persistent controller log in addition to c.log.
func New(cfg Config, opts ...Option) *Controller {
	if cfg.StartWait <= 0 {
		cfg.StartWait = DefaultStartWait
	}
	if cfg.StopWait <= 0 {
		cfg.StopWait = DefaultStopWait
	}
	c := &Controller{
		cfg:      cfg,
		table:    OSTable{},
		clock:    realClock{},
		poll:     DefaultPollInterval,
		stopPoll: DefaultStopInterval,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if cfg.Log.Dir != "" {
		if w, err := cfg.Log.ControllerWriter(); err == nil {
			events := logger.NewEventLogger(w, logger.ParseLevel(cfg.Log.Level))
			c.log = logger.Tee(c.log, events)
		}
	}
	return c
}

// QueryRunning reports the PID bound to the configured port, if any. When
// the port table cannot name the owner (unprivileged enumeration) a
// configured pidfile serves as fallback, cross-checked for liveness.
func (c *Controller) QueryRunning() (int, bool) {
	pid, err := c.table.PIDOfPort(c.cfg.Port)
	if err == nil && pid > 0 {
		return pid, true
	}
	if c.cfg.PIDFile == "" {
		return 0, false
	}
	filed, rErr := detector.PIDFileDetector{PIDFile: c.cfg.PIDFile}.Read()
	if rErr != nil || filed <= 0 {
		return 0, false
	}
	if alive, aErr := (detector.PIDDetector{PID: filed}).Alive(); aErr != nil || !alive {
		return 0, false
	}
	// Only trust the pidfile while the port is actually held.
	if bound, bErr := (detector.PortDetector{Port: c.cfg.Port}).Alive(); bErr != nil || !bound {
		return 0, false
	}
	return filed, true
}

// healthy runs the configured health check command, if any.
func (c *Controller) healthy() bool {
	if c.cfg.Check == "" {
		return true
	}
	ok, err := detector.CommandDetector{Command: c.cfg.Check}.Alive()
	return err == nil && ok
}

// Start launches the service detached and waits for it to bind the port.
// Stop always runs first so at most one instance holds the port afterwards.
// Stdout and stderr of the service go to a fresh timestamped capture file.
func (c *Controller) Start(ctx context.Context) (int, error) {
	if err := c.Stop(ctx); err != nil && !errors.Is(err, ErrNotRunning) {
		return 0, fmt.Errorf("stop before start: %w", err)
	}

	if c.cfg.OutputDir != "" {
		if err := os.MkdirAll(c.cfg.OutputDir, 0o750); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}

	capture, capturePath, err := c.cfg.Log.OpenCapture(c.clock.Now())
	if err != nil {
		return 0, err
	}

	var cmd *exec.Cmd
	if len(c.cfg.Args) > 0 {
		cmd = buildArgvCommand(c.cfg.Args)
	} else {
		cmd = buildCommand(c.cfg.Command)
	}
	if c.cfg.WorkDir != "" {
		cmd.Dir = c.cfg.WorkDir
	}
	if len(c.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), c.cfg.Env...)
	}
	cmd.Stdin = nil
	cmd.Stdout = capture
	cmd.Stderr = capture
	detachAttrs(cmd)

	if err := cmd.Start(); err != nil {
		_ = capture.Close()
		c.log.Error("service launch failed", "command", cmd.String(), "error", err)
		return 0, fmt.Errorf("launch service: %w", err)
	}
	launched := cmd.Process.Pid
	if c.cfg.PIDFile != "" {
		if err := os.WriteFile(c.cfg.PIDFile, []byte(strconv.Itoa(launched)+"\n"), 0o640); err != nil {
			c.log.Warn("write pidfile failed", "path", c.cfg.PIDFile, "error", err)
		}
	}
	// The controller does not supervise the child; drop our handle so the
	// detached session outlives this invocation.
	_ = cmd.Process.Release()
	_ = capture.Close()
	c.log.Info("service launched", "pid", launched, "capture", capturePath)

	// Bounded retry loop instead of one fixed sleep: short interval, explicit
	// deadline, so a fast bind is reported fast.
	deadline := c.clock.Now().Add(c.cfg.StartWait)
	for {
		if pid, ok := c.QueryRunning(); ok && c.healthy() {
			c.log.Info("service started", "pid", pid, "port", c.cfg.Port)
			metrics.IncStart()
			return pid, nil
		}
		if !c.clock.Now().Before(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		c.clock.Sleep(c.poll)
	}

	c.log.Error("service start failed", "port", c.cfg.Port, "wait", c.cfg.StartWait.String())
	metrics.IncStartFailure()
	c.noteBindFailure(capturePath)
	return 0, ErrBindTimeout
}

// Stop terminates whatever process holds the configured port. A free port is
// reported via ErrNotRunning, which callers treat as success. Escalation is
// graceful-then-forced: SIGTERM, poll until the port frees or StopWait
// elapses, then SIGKILL against the whole process group.
func (c *Controller) Stop(ctx context.Context) error {
	pid, err := c.table.PIDOfPort(c.cfg.Port)
	if err != nil {
		return fmt.Errorf("query port %d: %w", c.cfg.Port, err)
	}
	if pid <= 0 {
		c.log.Info("service not running", "port", c.cfg.Port)
		return ErrNotRunning
	}

	c.log.Info("stopping service", "pid", pid, "port", c.cfg.Port)
	if err := terminate(pid); err != nil {
		c.log.Warn("graceful termination request failed", "pid", pid, "error", err)
	}

	deadline := c.clock.Now().Add(c.cfg.StopWait)
	for c.clock.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.clock.Sleep(c.stopPoll)
		if p, err := c.table.PIDOfPort(c.cfg.Port); err == nil && p <= 0 {
			c.log.Info("service stopped", "pid", pid)
			metrics.IncStop()
			c.clearPIDFile()
			return nil
		}
	}

	c.log.Warn("graceful window elapsed, killing", "pid", pid)
	if err := forceKill(pid); err != nil {
		c.log.Error("forced termination failed", "pid", pid, "error", err)
	}
	// Brief final check after the kill.
	for i := 0; i < 5; i++ {
		c.clock.Sleep(c.poll)
		if p, err := c.table.PIDOfPort(c.cfg.Port); err == nil && p <= 0 {
			c.log.Info("service killed", "pid", pid)
			metrics.IncStop()
			c.clearPIDFile()
			return nil
		}
	}
	c.log.Error("service survived forced termination", "pid", pid)
	return ErrStillRunning
}

func (c *Controller) clearPIDFile() {
	if c.cfg.PIDFile != "" {
		_ = os.Remove(c.cfg.PIDFile)
	}
}

// noteBindFailure appends a failure record so no capture file is left without
// content explaining why the start produced nothing.
func (c *Controller) noteBindFailure(capturePath string) {
	if capturePath == "" {
		return
	}
	// #nosec G304 -- path was produced by OpenCapture above
	f, err := os.OpenFile(capturePath, os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	_, _ = fmt.Fprintf(f, "docserve: service did not bind port %d within %s\n", c.cfg.Port, c.cfg.StartWait)
}
