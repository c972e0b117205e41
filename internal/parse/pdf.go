package parse

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
)

// PDFParser extracts text per page via MuPDF. Pages without an extractable
// text layer (scans) are rendered and handed to OCR when one is configured.
type PDFParser struct {
	OCR OCR
}

func (p *PDFParser) CanProcess(mimeType string) bool {
	return mimeType == "application/pdf"
}

func (p *PDFParser) Parse(ctx context.Context, name string, data []byte) (*Result, error) {
	start := time.Now()
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", name, err)
	}
	defer func() { _ = doc.Close() }()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", i+1, name, err)
		}
		if strings.TrimSpace(text) == "" && p.OCR != nil {
			if ocrText, err := p.ocrPage(ctx, doc, i); err == nil {
				text = ocrText
			}
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	return &Result{
		Markdown: RenderPages(pages),
		Pages:    len(pages),
		Duration: time.Since(start).Seconds(),
	}, nil
}

func (p *PDFParser) ocrPage(ctx context.Context, doc *fitz.Document, page int) (string, error) {
	img, err := doc.Image(page)
	if err != nil {
		return "", fmt.Errorf("render page %d: %w", page+1, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page %d: %w", page+1, err)
	}
	return p.OCR.Recognize(ctx, buf.Bytes())
}
