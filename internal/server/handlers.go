package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/docserve/internal/cache"
	"github.com/loykin/docserve/internal/metrics"
	"github.com/loykin/docserve/internal/parse"
)

type parseData struct {
	Markdown string  `json:"markdown"`
	Page     int     `json:"page"`
	Duration float64 `json:"duration"`
}

type v1Resp struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    *parseData `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
}

type v2Resp struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Markdown string  `json:"markdown,omitempty"`
	Pages    int     `json:"pages,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Cached   bool    `json:"cached,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type statusResp struct {
	Uptime  string       `json:"uptime"`
	Workers int          `json:"workers"`
	Cache   *cache.Stats `json:"cache,omitempty"`
}

func (r *Router) handleHealth(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

func (r *Router) handleStatus(c *gin.Context) {
	resp := statusResp{
		Uptime:  time.Since(r.started).Round(time.Second).String(),
		Workers: r.svc.Workers(),
	}
	if r.store != nil {
		if st, err := r.store.Stats(c.Request.Context()); err == nil {
			resp.Cache = &st
		}
	}
	writeJSON(c, http.StatusOK, resp)
}

func (r *Router) handleParseV1(c *gin.Context) {
	name, data, ok := r.readUpload(c)
	if !ok {
		return
	}
	res, err := r.svc.Parse(c.Request.Context(), name, "", data)
	if err != nil {
		r.writeParseError(c, err, func(msg string) any {
			return v1Resp{Success: false, Message: "parse failed", Error: msg}
		})
		return
	}
	md, ok := r.finishMarkdown(c, res.Markdown)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, v1Resp{
		Success: true,
		Data:    &parseData{Markdown: md, Page: res.Pages, Duration: res.Duration},
	})
}

func (r *Router) handleParseV2(c *gin.Context) {
	name, data, ok := r.readUpload(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	key := cache.Key(data)

	if r.store != nil {
		if rec, err := r.store.Get(ctx, key); err == nil {
			metrics.IncCacheHit()
			md, ok := r.finishMarkdown(c, rec.Markdown)
			if !ok {
				return
			}
			writeJSON(c, http.StatusOK, v2Resp{Success: true, Markdown: md, Pages: rec.Pages, Duration: rec.Duration, Cached: true})
			return
		} else if !errors.Is(err, cache.ErrNotFound) {
			r.log.Warn("cache lookup failed", "key", key, "error", err)
		}
		metrics.IncCacheMiss()
	}

	res, err := r.svc.Parse(ctx, name, "", data)
	if err != nil {
		r.writeParseError(c, err, func(msg string) any {
			return v2Resp{Success: false, Message: "parse failed", Error: msg}
		})
		return
	}
	if r.store != nil {
		rec := cache.Record{Key: key, Name: name, Markdown: res.Markdown, Pages: res.Pages, Duration: res.Duration}
		if err := r.store.Put(ctx, rec); err != nil {
			r.log.Warn("cache store failed", "key", key, "error", err)
		}
	}
	md, ok := r.finishMarkdown(c, res.Markdown)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, v2Resp{Success: true, Markdown: md, Pages: res.Pages, Duration: res.Duration})
}

// readUpload pulls the multipart "file" part, enforcing the size limit.
func (r *Router) readUpload(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		writeJSON(c, http.StatusBadRequest, v1Resp{Success: false, Message: "missing multipart field \"file\"", Error: err.Error()})
		return "", nil, false
	}
	if max := int64(r.cfg.MaxUploadMB) << 20; fh.Size > max {
		writeJSON(c, http.StatusRequestEntityTooLarge, v1Resp{Success: false, Message: "file too large"})
		return "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		writeJSON(c, http.StatusBadRequest, v1Resp{Success: false, Message: "unreadable upload", Error: err.Error()})
		return "", nil, false
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, v1Resp{Success: false, Message: "unreadable upload", Error: err.Error()})
		return "", nil, false
	}
	return fh.Filename, data, true
}

// finishMarkdown embeds referenced page images and applies ?format=html.
func (r *Router) finishMarkdown(c *gin.Context, md string) (string, bool) {
	if r.cfg.OutputDir != "" {
		md = parse.EmbedImages(md, r.cfg.OutputDir)
	}
	if c.Query("format") != "html" {
		return md, true
	}
	html, err := parse.ToHTML(md)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, v1Resp{Success: false, Message: "render failed", Error: err.Error()})
		return "", false
	}
	return html, true
}

func (r *Router) writeParseError(c *gin.Context, err error, body func(msg string) any) {
	code := http.StatusInternalServerError
	if errors.Is(err, parse.ErrUnsupported) {
		code = http.StatusUnsupportedMediaType
	}
	writeJSON(c, code, body(err.Error()))
}
