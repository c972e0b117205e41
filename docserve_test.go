package docserve

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestControllerFacadeQueryAndStop(t *testing.T) {
	// A port nothing listens on: not running, and stop is informational.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	c := NewController(ServiceConfig{Port: port})
	if _, running := c.QueryRunning(); running {
		t.Fatalf("free port reported running")
	}
	if err := c.Stop(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestLoadConfigFacade(t *testing.T) {
	file := filepath.Join(t.TempDir(), "docserve.toml")
	if err := os.WriteFile(file, []byte("[service]\ncommand = \"mineru-api\"\n"), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	fc, err := LoadConfig(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Service.Command != "mineru-api" {
		t.Fatalf("unexpected config: %+v", fc.Service)
	}
}

func TestNewCacheFacade(t *testing.T) {
	st, err := NewCache(":memory:")
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	if err := st.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	_ = st.Close()
}

func TestRegisterMetricsFacade(t *testing.T) {
	r := prometheus.NewRegistry()
	if err := RegisterMetrics(r); err != nil {
		t.Fatalf("register: %v", err)
	}
}
