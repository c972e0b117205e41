package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/loykin/docserve/internal/cache"
	"github.com/loykin/docserve/internal/cache/factory"
	"github.com/loykin/docserve/internal/config"
	"github.com/loykin/docserve/internal/lifecycle"
	"github.com/loykin/docserve/internal/logger"
	"github.com/loykin/docserve/internal/metrics"
	"github.com/loykin/docserve/internal/parse"
	"github.com/loykin/docserve/internal/server"
	"github.com/loykin/docserve/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
)

type command struct {
	global *GlobalFlags
}

func (c *command) loadConfig() (*config.FileConfig, error) {
	if c.global.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(c.global.ConfigPath)
}

// resolveService applies flag overrides and falls back to re-executing this
// binary with "serve" when no external service command is configured.
func (c *command) resolveService(fc *config.FileConfig, f StartFlags) error {
	if f.Command != "" {
		fc.Service.Command = f.Command
	}
	if f.Port > 0 {
		fc.Service.Port = f.Port
	}
	if f.OutputDir != "" {
		fc.Service.OutputDir = f.OutputDir
	}
	if f.StartWait > 0 {
		fc.Service.StartWait = f.StartWait
	}
	if fc.Service.Command != "" || len(fc.Service.Args) > 0 {
		return nil
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("no service command configured and cannot resolve own binary: %w", err)
	}
	// Explicit argv, not a command string: paths with spaces must not be
	// re-split on launch.
	args := []string{exe, "serve"}
	if c.global.ConfigPath != "" {
		args = append(args, "--config", c.global.ConfigPath)
	}
	fc.Service.Args = args
	// Probe the port serve will bind rather than the external-service one.
	if f.Port <= 0 {
		if p, err := listenPort(fc.Server.Listen); err == nil {
			fc.Service.Port = p
		}
	}
	return nil
}

// Start launches the service and reports the discovered PID.
func (c *command) Start(f StartFlags) error {
	fc, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := c.resolveService(fc, f); err != nil {
		return err
	}
	ctl := lifecycle.New(fc.Controller(), lifecycle.WithLogger(logger.NewConsoleLogger(logger.ParseLevel(fc.Log.Level))))
	pid, err := ctl.Start(context.Background())
	if err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	printJSON(statusPayload(fc, pid, true, false))
	return nil
}

// Stop terminates the service; a service that is not running counts as success.
func (c *command) Stop(f StopFlags) error {
	fc, err := c.loadConfig()
	if err != nil {
		return err
	}
	if f.Port > 0 {
		fc.Service.Port = f.Port
	}
	if f.StopWait > 0 {
		fc.Service.StopWait = f.StopWait
	}
	ctl := lifecycle.New(fc.Controller(), lifecycle.WithLogger(logger.NewConsoleLogger(logger.ParseLevel(fc.Log.Level))))
	err = ctl.Stop(context.Background())
	if errors.Is(err, lifecycle.ErrNotRunning) {
		fmt.Printf("service not running on port %d\n", fc.Service.Port)
		return nil
	}
	if err != nil {
		return fmt.Errorf("stop service: %w", err)
	}
	fmt.Printf("service on port %d stopped\n", fc.Service.Port)
	return nil
}

// Status reports whether the service holds its port, optionally with
// resource usage of the owning process.
func (c *command) Status(f StatusFlags) error {
	fc, err := c.loadConfig()
	if err != nil {
		return err
	}
	if f.Port > 0 {
		fc.Service.Port = f.Port
	}
	ctl := lifecycle.New(fc.Controller())
	pid, running := ctl.QueryRunning()
	printJSON(statusPayload(fc, pid, running, f.Detailed))
	return nil
}

// statusPayload assembles the JSON body shared by start and status output.
func statusPayload(fc *config.FileConfig, pid int, running, detailed bool) map[string]any {
	out := map[string]any{"running": running, "port": fc.Service.Port}
	if !running {
		return out
	}
	out["pid"] = pid
	out["url"] = fc.ServiceURL()
	if detailed {
		if u, err := lifecycle.ProcessUsage(pid); err == nil {
			out["usage"] = u
		}
	}
	return out
}

// Serve runs the parse service in the foreground until SIGINT/SIGTERM.
func (c *command) Serve(f ServeFlags) error {
	fc, err := c.loadConfig()
	if err != nil {
		return err
	}
	if f.Listen != "" {
		fc.Server.Listen = f.Listen
	}
	if f.Workers > 0 {
		fc.Server.Workers = f.Workers
	}
	log := logger.NewConsoleLogger(logger.ParseLevel(fc.Log.Level))

	if fc.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			log.Warn("metrics registration failed", "error", err)
		}
	}

	var store cache.Store
	if fc.Cache.Enabled {
		dsn := fc.Cache.DSN
		if dsn == "" {
			dsn = "docserve_cache.db"
		}
		st, err := factory.NewFromDSN(dsn)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		if err := st.EnsureSchema(context.Background()); err != nil {
			_ = st.Close()
			return fmt.Errorf("cache schema: %w", err)
		}
		defer func() { _ = st.Close() }()
		store = st
	}

	svc := parse.NewService(fc.Server.Workers, parse.DefaultParsers(parse.TesseractOCR{}), log)
	router := server.NewRouter(server.Config{
		MaxUploadMB: fc.Server.MaxUploadMB,
		OutputDir:   fc.Service.OutputDir,
	}, svc, store, log)

	srv, err := server.NewServer(fc.Server.Listen, router)
	if err != nil {
		return err
	}
	log.Info("docserve listening", "addr", fc.Server.Listen, "workers", svc.Workers())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info("shutting down", "signal", s.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Parse uploads a file to a running service and prints the result.
func (c *command) Parse(path string, f ParseFlags) error {
	fc, err := c.loadConfig()
	if err != nil {
		return err
	}
	base := f.APIUrl
	if base == "" {
		base = serviceBaseURL(fc.Server.Listen)
	}
	cl := client.New(client.Config{BaseURL: base, Timeout: f.APITimeout})
	ctx := context.Background()
	if !cl.IsReachable(ctx) {
		return fmt.Errorf("service not reachable at %s - start it first with 'docserve start'", base)
	}
	res, err := cl.ParseFile(ctx, path, client.ParseOptions{UseCache: f.UseCache, Format: f.Format})
	if err != nil {
		return err
	}
	if f.Output != "" {
		return os.WriteFile(f.Output, []byte(res.Markdown), 0o640)
	}
	fmt.Println(res.Markdown)
	return nil
}

// serviceBaseURL derives a reachable client URL from the API listen address,
// substituting loopback only for empty or wildcard hosts.
func serviceBaseURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// listenPort extracts the TCP port from a listen address like ":9200".
func listenPort(listen string) (int, error) {
	_, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
