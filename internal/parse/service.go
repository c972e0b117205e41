package parse

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/loykin/docserve/internal/metrics"
)

// Service routes documents to parsers through a bounded worker pool so a
// burst of uploads cannot pile unbounded parse work onto the host.
type Service struct {
	parsers []Parser
	slots   chan struct{}
	log     *slog.Logger
}

// DefaultParsers returns the production parser set backed by ocr.
func DefaultParsers(ocr OCR) []Parser {
	return []Parser{
		&PDFParser{OCR: ocr},
		&ImageParser{OCR: ocr},
	}
}

// NewService builds a Service with the given concurrency. workers <= 0
// means one per CPU.
func NewService(workers int, parsers []Parser, log *slog.Logger) *Service {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		parsers: parsers,
		slots:   make(chan struct{}, workers),
		log:     log,
	}
}

// Workers reports the pool size.
func (s *Service) Workers() int { return cap(s.slots) }

// Parse resolves a parser for the document and runs it inside the pool.
// mimeType may be empty; it is then detected from the name and content.
func (s *Service) Parse(ctx context.Context, name, mimeType string, data []byte) (*Result, error) {
	if mimeType == "" {
		mimeType = DetectMIME(name, data)
	}
	parser := s.parserFor(mimeType)
	if parser == nil {
		metrics.IncParse("unsupported")
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupported, name, mimeType)
	}

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	start := time.Now()
	res, err := parser.Parse(ctx, name, data)
	elapsed := time.Since(start)
	if err != nil {
		metrics.IncParse("error")
		s.log.Error("parse failed", "name", name, "mime", mimeType, "error", err)
		return nil, err
	}
	metrics.IncParse("ok")
	metrics.ObserveParseDuration(elapsed.Seconds())
	metrics.AddPages(res.Pages)
	s.log.Info("parsed document", "name", name, "pages", res.Pages, "duration", elapsed.String())
	return res, nil
}

func (s *Service) parserFor(mimeType string) Parser {
	for _, p := range s.parsers {
		if p.CanProcess(mimeType) {
			return p
		}
	}
	return nil
}
