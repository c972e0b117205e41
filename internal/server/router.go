package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/docserve/internal/cache"
	"github.com/loykin/docserve/internal/metrics"
	"github.com/loykin/docserve/internal/parse"
)

// Router provides the embeddable HTTP handlers of the parse API.
// Endpoints:
//
//	POST {basePath}/v1/parse/file   multipart "file"; sync parse
//	POST {basePath}/v2/parse/file   same, with content-hash result cache
//	GET  {basePath}/healthz
//	GET  {basePath}/status
//	GET  {basePath}/metrics
//
// Either parse endpoint accepts ?format=html to get rendered HTML instead
// of markdown. basePath may be empty or start with '/'; no trailing slash.

type Config struct {
	BasePath    string
	MaxUploadMB int
	OutputDir   string // page images referenced by results live here
}

type Router struct {
	cfg     Config
	svc     *parse.Service
	store   cache.Store // nil disables the v2 cache
	log     *slog.Logger
	started time.Time
}

// NewRouter constructs a Router. store may be nil; v2 then parses every
// request like v1.
func NewRouter(cfg Config, svc *parse.Service, store cache.Store, log *slog.Logger) *Router {
	cfg.BasePath = sanitizeBase(cfg.BasePath)
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &Router{cfg: cfg, svc: svc, store: store, log: log, started: time.Now()}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery(), requestID())
	g.MaxMultipartMemory = int64(r.cfg.MaxUploadMB) << 20
	group := g.Group(r.cfg.BasePath)
	group.GET("/healthz", r.handleHealth)
	group.GET("/status", r.handleStatus)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	group.POST("/v1/parse/file", r.handleParseV1)
	group.POST("/v2/parse/file", r.handleParseV2)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// Callers shut it down through the returned http.Server.
func NewServer(addr string, r *Router) (*http.Server, error) {
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute, // uploads of large scans are slow
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}
