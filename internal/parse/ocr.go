package parse

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// OCR extracts text from an encoded image (png/jpeg/tiff bytes).
type OCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// TesseractOCR runs gosseract. A fresh client per call keeps the engine
// state isolated; tesseract clients are not safe for concurrent reuse.
type TesseractOCR struct {
	Languages []string // e.g. ["eng","kor"]; empty means engine default
}

func (t TesseractOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()
	if len(t.Languages) > 0 {
		if err := client.SetLanguage(t.Languages...); err != nil {
			return "", fmt.Errorf("set ocr language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return text, nil
}
