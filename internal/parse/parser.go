package parse

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned when no parser accepts the document type.
var ErrUnsupported = errors.New("unsupported document type")

// Result is one parsed document.
type Result struct {
	Markdown string  `json:"markdown"`
	Pages    int     `json:"pages"`
	Duration float64 `json:"duration"` // seconds
}

// Parser converts one document class to markdown.
type Parser interface {
	// CanProcess reports whether the parser handles the MIME type.
	CanProcess(mimeType string) bool
	Parse(ctx context.Context, name string, data []byte) (*Result, error)
}

// DetectMIME resolves a document's MIME type from its filename extension,
// falling back to content sniffing. Extensions win because sniffing cannot
// tell some formats apart (tiff in particular).
func DetectMIME(name string, data []byte) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			if i := strings.IndexByte(mt, ';'); i >= 0 {
				mt = mt[:i]
			}
			return mt
		}
	}
	mt := http.DetectContentType(data)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return mt
}
