package main

import (
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/loykin/docserve/internal/config"
)

func TestHelpListsCommands(t *testing.T) {
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--help"})
	if err := root.Execute(); err != nil {
		t.Fatalf("help should succeed: %v", err)
	}
	for _, sub := range []string{"start", "stop", "status", "serve", "parse"} {
		if !strings.Contains(out.String(), sub) {
			t.Fatalf("help missing %q: %s", sub, out.String())
		}
	}
}

func TestUnknownVerbFails(t *testing.T) {
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"definitely-not-a-verb"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for unknown verb")
	}
}

func TestParseRequiresFile(t *testing.T) {
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"parse"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error when no file argument given")
	}
}

func TestStopNotRunningSucceeds(t *testing.T) {
	// Grab a port the OS considers free, release it, then stop against it.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	c := command{global: &GlobalFlags{}}
	if err := c.Stop(StopFlags{Port: port}); err != nil {
		t.Fatalf("stop on free port should succeed: %v", err)
	}
}

func TestListenPort(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{":9200", 9200, true},
		{"127.0.0.1:8000", 8000, true},
		{"nonsense", 0, false},
	}
	for _, c := range cases {
		got, err := listenPort(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("%s: got %d, %v", c.in, got, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("%s: expected error", c.in)
		}
	}
}

func TestResolveServiceSelfExec(t *testing.T) {
	c := command{global: &GlobalFlags{}}
	fc, err := c.loadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := c.resolveService(fc, StartFlags{}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(fc.Service.Args) < 2 || fc.Service.Args[1] != "serve" {
		t.Fatalf("expected self-exec serve argv, got %q", fc.Service.Args)
	}
	if fc.Service.Port != 9200 {
		t.Fatalf("expected probe port from listen address, got %d", fc.Service.Port)
	}
}

func TestResolveServiceConfigPathWithSpaces(t *testing.T) {
	// The resolved argv must carry the path as a single element; a command
	// string would be re-split on launch.
	c := command{global: &GlobalFlags{ConfigPath: "/etc/doc serve/docserve.toml"}}
	fc := config.Default()
	if err := c.resolveService(fc, StartFlags{}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	found := false
	for _, a := range fc.Service.Args {
		if a == "/etc/doc serve/docserve.toml" {
			found = true
		}
	}
	if !found {
		t.Fatalf("config path not preserved verbatim in argv: %q", fc.Service.Args)
	}
}

func TestServiceBaseURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{":9200", "http://127.0.0.1:9200"},
		{"127.0.0.1:8123", "http://127.0.0.1:8123"},
		{"0.0.0.0:9200", "http://127.0.0.1:9200"},
		{"[::]:9200", "http://127.0.0.1:9200"},
		{"example.com:80", "http://example.com:80"},
	}
	for _, c := range cases {
		if got := serviceBaseURL(c.in); got != c.want {
			t.Fatalf("%s: got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStatusPayloadIncludesURL(t *testing.T) {
	fc := config.Default()
	out := statusPayload(fc, 1234, true, false)
	if out["url"] != fc.ServiceURL() {
		t.Fatalf("running payload missing service url: %v", out)
	}
	out = statusPayload(fc, 0, false, false)
	if _, ok := out["url"]; ok {
		t.Fatalf("stopped payload should not carry a url: %v", out)
	}
}
