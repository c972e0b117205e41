package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"uptime":"1m0s","workers":2,"cache":{"entries":3}}`))
	})
	mux.HandleFunc("POST /v1/parse/file", func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("file"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"message":"missing file"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"","data":{"markdown":"# Page 1\n\nhi\n","page":2,"duration":1.5}}`))
	})
	mux.HandleFunc("POST /v2/parse/file", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"","markdown":"# Page 1\n\nhi\n","pages":2,"cached":true}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIsReachable(t *testing.T) {
	srv := newTestService(t)
	c := New(Config{BaseURL: srv.URL})
	if !c.IsReachable(context.Background()) {
		t.Fatalf("expected reachable")
	}
	srv.Close()
	if c.IsReachable(context.Background()) {
		t.Fatalf("expected unreachable after close")
	}
}

func TestStatus(t *testing.T) {
	srv := newTestService(t)
	c := New(Config{BaseURL: srv.URL})
	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Workers != 2 || st.Cache == nil || st.Cache.Entries != 3 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestParseFileV1(t *testing.T) {
	srv := newTestService(t)
	c := New(Config{BaseURL: srv.URL})

	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	res, err := c.ParseFile(context.Background(), path, ParseOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Pages != 2 || !strings.Contains(res.Markdown, "# Page 1") || res.Duration != 1.5 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Cached {
		t.Fatalf("v1 result marked cached")
	}
}

func TestParseBytesV2(t *testing.T) {
	srv := newTestService(t)
	c := New(Config{BaseURL: srv.URL})
	res, err := c.ParseBytes(context.Background(), "doc.pdf", []byte("%PDF-"), ParseOptions{UseCache: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !res.Cached || res.Pages != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseFileMissing(t *testing.T) {
	srv := newTestService(t)
	c := New(Config{BaseURL: srv.URL})
	if _, err := c.ParseFile(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), ParseOptions{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestAPIErrorSurface(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"parse failed","error":"engine down"}`))
	}))
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL})
	_, err := c.ParseBytes(context.Background(), "doc.pdf", []byte("%PDF-"), ParseOptions{})
	if err == nil || !strings.Contains(err.Error(), "engine down") {
		t.Fatalf("expected API error, got %v", err)
	}
}
