package parse

import (
	"context"
	"fmt"
	"strings"
	"time"
)

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/tiff": true,
	"image/bmp":  true,
}

// ImageParser OCRs standalone images into a single-page markdown document.
type ImageParser struct {
	OCR OCR
}

func (p *ImageParser) CanProcess(mimeType string) bool {
	return imageTypes[mimeType]
}

func (p *ImageParser) Parse(ctx context.Context, name string, data []byte) (*Result, error) {
	if p.OCR == nil {
		return nil, fmt.Errorf("parse image %s: no OCR engine configured", name)
	}
	start := time.Now()
	text, err := p.OCR.Recognize(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("parse image %s: %w", name, err)
	}
	return &Result{
		Markdown: RenderPages([]string{strings.TrimSpace(text)}),
		Pages:    1,
		Duration: time.Since(start).Seconds(),
	}, nil
}
