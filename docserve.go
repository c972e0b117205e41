package docserve

import (
	"context"
	"net/http"

	"github.com/loykin/docserve/internal/cache"
	"github.com/loykin/docserve/internal/cache/factory"
	cfg "github.com/loykin/docserve/internal/config"
	"github.com/loykin/docserve/internal/lifecycle"
	"github.com/loykin/docserve/internal/metrics"
	"github.com/loykin/docserve/internal/parse"
	iapi "github.com/loykin/docserve/internal/server"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type ServiceConfig = lifecycle.Config

type ParseResult = parse.Result

type CacheStore = cache.Store

// Sentinel errors of the lifecycle controller.
var (
	ErrNotRunning   = lifecycle.ErrNotRunning
	ErrBindTimeout  = lifecycle.ErrBindTimeout
	ErrStillRunning = lifecycle.ErrStillRunning
)

// Controller is a thin facade over internal/lifecycle.Controller.
// It provides a stable public API for embedding.

type Controller struct{ inner *lifecycle.Controller }

func NewController(c ServiceConfig) *Controller {
	return &Controller{inner: lifecycle.New(c)}
}

func (c *Controller) Start(ctx context.Context) (int, error) { return c.inner.Start(ctx) }
func (c *Controller) Stop(ctx context.Context) error         { return c.inner.Stop(ctx) }
func (c *Controller) QueryRunning() (int, bool)              { return c.inner.QueryRunning() }

func LoadConfig(path string) (*cfg.FileConfig, error) {
	return cfg.Load(path)
}

// NewCache opens a parse-result cache from a DSN (sqlite path or postgres URL).
func NewCache(dsn string) (cache.Store, error) {
	return factory.NewFromDSN(dsn)
}

// NewHTTPServer starts the parse API server on addr using the given parser
// workers and optional cache store.
func NewHTTPServer(addr string, workers int, store cache.Store) (*http.Server, error) {
	svc := parse.NewService(workers, parse.DefaultParsers(parse.TesseractOCR{}), nil)
	router := iapi.NewRouter(iapi.Config{}, svc, store, nil)
	return iapi.NewServer(addr, router)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
