package client

// ParseOptions controls how a document upload is parsed.
type ParseOptions struct {
	UseCache bool   // route through the cached v2 endpoint
	Format   string // "" for markdown, "html" for rendered HTML
}

// ParseResult is the normalized result of either parse endpoint.
type ParseResult struct {
	Markdown string  `json:"markdown"`
	Pages    int     `json:"pages"`
	Duration float64 `json:"duration"`
	Cached   bool    `json:"cached"`
}

// Status mirrors the service's /status response.
type Status struct {
	Uptime  string      `json:"uptime"`
	Workers int         `json:"workers"`
	Cache   *CacheStats `json:"cache,omitempty"`
}

// CacheStats summarizes the service-side result cache.
type CacheStats struct {
	Entries int64  `json:"entries"`
	Oldest  string `json:"oldest,omitempty"`
}

type v1Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		Markdown string  `json:"markdown"`
		Page     int     `json:"page"`
		Duration float64 `json:"duration"`
	} `json:"data"`
	Error string `json:"error"`
}

type v2Response struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	Markdown string  `json:"markdown"`
	Pages    int     `json:"pages"`
	Cached   bool    `json:"cached"`
	Error    string  `json:"error"`
	Duration float64 `json:"duration"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}
