package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation configuration constants
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// controllerLogName is the append-only lifecycle event log, one line per
// start/stop event. Service output goes to per-start capture files instead.
const controllerLogName = "docserve.log"

// Config describes logging destinations for the controller and the wrapped
// service. All files live under Dir. Rotation parameters follow lumberjack
// semantics and apply to the controller log only; capture files are one per
// service start and are never rotated.
type Config struct {
	Dir        string `json:"dir" mapstructure:"dir"`
	Level      string `json:"level" mapstructure:"level"`
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// ControllerWriter returns the rotating writer for lifecycle events.
func (c Config) ControllerWriter() (io.WriteCloser, error) {
	if c.Dir == "" {
		return nil, fmt.Errorf("log dir not configured")
	}
	if err := os.MkdirAll(c.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &lj.Logger{
		Filename:   filepath.Join(c.Dir, controllerLogName),
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}, nil
}

// CapturePath derives the path of a fresh capture file for a service start
// at ts, e.g. Dir/service_20260829_153000.log.
func (c Config) CapturePath(ts time.Time) string {
	return filepath.Join(c.Dir, fmt.Sprintf("service_%s.log", ts.Format("20060102_150405")))
}

// OpenCapture creates the capture file for one service start. The file is
// fresh per invocation; an existing file of the same name is truncated.
func (c Config) OpenCapture(ts time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(c.Dir, 0o750); err != nil {
		return nil, "", fmt.Errorf("create log dir: %w", err)
	}
	path := c.CapturePath(ts)
	// #nosec G304 -- path is derived from configured dir and a timestamp
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, "", fmt.Errorf("open capture file: %w", err)
	}
	return f, path, nil
}

// ParseLevel maps a config string to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewEventLogger returns a slog logger writing timestamped text lines to w.
// Used for the controller event log where every line must carry a timestamp.
func NewEventLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewConsoleLogger returns a colorized slog logger for interactive use.
func NewConsoleLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(NewColorTextHandler(os.Stderr, opts, true))
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
