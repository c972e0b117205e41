package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Client talks to a running docserve parse service.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration // covers the whole upload+parse roundtrip
	Logger  *slog.Logger  // optional logger for client operations
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:9200",
		Timeout: 5 * time.Minute,
	}
}

// New creates a docserve API client.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: config.BaseURL,
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

// IsReachable checks if the service is running and answering.
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("service unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Status fetches the service's status summary.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status: HTTP %d", resp.StatusCode)
	}
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &st, nil
}

// ParseFile uploads the file at path and returns the parse result.
func (c *Client) ParseFile(ctx context.Context, path string, opts ParseOptions) (*ParseResult, error) {
	// #nosec G304 -- caller-supplied document path
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c.ParseBytes(ctx, filepath.Base(path), data, opts)
}

// ParseBytes uploads in-memory document content under the given filename.
func (c *Client) ParseBytes(ctx context.Context, name string, data []byte, opts ParseOptions) (*ParseResult, error) {
	endpoint := "/v1/parse/file"
	if opts.UseCache {
		endpoint = "/v2/parse/file"
	}
	target := c.baseURL + endpoint
	if opts.Format != "" {
		target += "?format=" + url.QueryEscape(opts.Format)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Debug("uploading document", "name", name, "endpoint", endpoint, "bytes", len(data))
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, raw)
	}

	if opts.UseCache {
		var v2 v2Response
		if err := json.Unmarshal(raw, &v2); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &ParseResult{Markdown: v2.Markdown, Pages: v2.Pages, Duration: v2.Duration, Cached: v2.Cached}, nil
	}
	var v1 v1Response
	if err := json.Unmarshal(raw, &v1); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if v1.Data == nil {
		return nil, fmt.Errorf("response missing data: %s", v1.Message)
	}
	return &ParseResult{Markdown: v1.Data.Markdown, Pages: v1.Data.Page, Duration: v1.Data.Duration}, nil
}

func apiError(status int, raw []byte) error {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && (er.Error != "" || er.Message != "") {
		msg := er.Error
		if msg == "" {
			msg = er.Message
		}
		return fmt.Errorf("API error (HTTP %d): %s", status, msg)
	}
	return fmt.Errorf("HTTP %d", status)
}
