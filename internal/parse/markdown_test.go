package parse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderPages(t *testing.T) {
	md := RenderPages([]string{"first page", "second page"})
	if !strings.Contains(md, "# Page 1\n\nfirst page") {
		t.Fatalf("page 1 missing: %q", md)
	}
	if !strings.Contains(md, "# Page 2\n\nsecond page") {
		t.Fatalf("page 2 missing: %q", md)
	}
}

func TestEmbedImages(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fig.png"), []byte{0x89, 'P', 'N', 'G'}, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	md := "before ![figure](fig.png) after"
	out := EmbedImages(md, dir)
	if !strings.Contains(out, "![figure](data:image/png;base64,") {
		t.Fatalf("image not embedded: %q", out)
	}
	if strings.Contains(out, "fig.png") {
		t.Fatalf("original reference left behind: %q", out)
	}
}

func TestEmbedImagesLeavesUnresolvable(t *testing.T) {
	dir := t.TempDir()
	cases := []string{
		"![x](missing.png)",
		"![x](https://example.com/a.png)",
		"![x](data:image/png;base64,AAAA)",
		"![x](../outside.png)",
	}
	for _, md := range cases {
		if got := EmbedImages(md, dir); got != md {
			t.Fatalf("reference %q rewritten to %q", md, got)
		}
	}
}

func TestToHTML(t *testing.T) {
	html, err := ToHTML("# Page 1\n\nhello **world**\n")
	if err != nil {
		t.Fatalf("to html: %v", err)
	}
	if !strings.Contains(html, "<h1>Page 1</h1>") || !strings.Contains(html, "<strong>world</strong>") {
		t.Fatalf("unexpected html: %q", html)
	}
}
