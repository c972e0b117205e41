package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestControllerWriterCreatesFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Dir: filepath.Join(dir, "logs")}
	w, err := cfg.ControllerWriter()
	if err != nil {
		t.Fatalf("ControllerWriter: %v", err)
	}
	if _, err := w.Write([]byte("start ok\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = w.Close()
	path := filepath.Join(dir, "logs", "docserve.log")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("controller log not created at %s: %v", path, err)
	}
	if !strings.Contains(string(b), "start ok") {
		t.Fatalf("unexpected content: %q", string(b))
	}
}

func TestControllerWriterRequiresDir(t *testing.T) {
	if _, err := (Config{}).ControllerWriter(); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestCapturePathTimestamped(t *testing.T) {
	cfg := Config{Dir: "/var/log/docserve"}
	ts := time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)
	got := cfg.CapturePath(ts)
	want := filepath.Join("/var/log/docserve", "service_20260829_153000.log")
	if got != want {
		t.Fatalf("CapturePath = %q, want %q", got, want)
	}
}

func TestOpenCaptureFreshFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Dir: dir}
	ts := time.Now()
	f, path, err := cfg.OpenCapture(ts)
	if err != nil {
		t.Fatalf("OpenCapture: %v", err)
	}
	if _, err := f.WriteString("stale\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	// A second open of the same timestamp truncates.
	f, _, err = cfg.OpenCapture(ts)
	if err != nil {
		t.Fatalf("OpenCapture again: %v", err)
	}
	_ = f.Close()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 0 {
		t.Fatalf("expected truncated capture file, got %q", string(b))
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
