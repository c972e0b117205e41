package parse

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

// RenderPages assembles per-page text into one markdown document with a
// heading per page.
func RenderPages(pages []string) string {
	var b strings.Builder
	for i, text := range pages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "# Page %d\n\n", i+1)
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

var imageRefPattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

// EmbedImages rewrites relative image references in markdown to base64 data
// URIs, reading the image files from dir. References that cannot be read or
// point outside dir are left untouched, so the document stays renderable.
func EmbedImages(markdown, dir string) string {
	return imageRefPattern.ReplaceAllStringFunc(markdown, func(ref string) string {
		m := imageRefPattern.FindStringSubmatch(ref)
		alt, src := m[1], m[2]
		if strings.Contains(src, "://") || strings.HasPrefix(src, "data:") {
			return ref
		}
		clean := filepath.Clean(filepath.Join(dir, src))
		if rel, err := filepath.Rel(dir, clean); err != nil || strings.HasPrefix(rel, "..") {
			return ref
		}
		// #nosec G304 -- path confined to dir above
		data, err := os.ReadFile(clean)
		if err != nil {
			return ref
		}
		mt := mime.TypeByExtension(filepath.Ext(clean))
		if mt == "" {
			mt = "application/octet-stream"
		}
		return fmt.Sprintf("![%s](data:%s;base64,%s)", alt, mt, base64.StdEncoding.EncodeToString(data))
	})
}

// ToHTML renders markdown to HTML.
func ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}
