package parse

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stubParser struct {
	mime    string
	result  *Result
	err     error
	active  atomic.Int32
	maxSeen atomic.Int32
	delay   time.Duration
}

func (s *stubParser) CanProcess(mt string) bool { return mt == s.mime }

func (s *stubParser) Parse(ctx context.Context, name string, data []byte) (*Result, error) {
	n := s.active.Add(1)
	for {
		max := s.maxSeen.Load()
		if n <= max || s.maxSeen.CompareAndSwap(max, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.active.Add(-1)
	return s.result, s.err
}

func TestDetectMIME(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"doc.pdf", nil, "application/pdf"},
		{"scan.tiff", nil, "image/tiff"},
		{"pic.PNG", nil, "image/png"},
		{"noext", []byte("%PDF-1.7 ..."), "application/pdf"},
	}
	for _, c := range cases {
		if got := DetectMIME(c.name, c.data); got != c.want {
			t.Fatalf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestServiceRoutesByMIME(t *testing.T) {
	pdf := &stubParser{mime: "application/pdf", result: &Result{Markdown: "pdf", Pages: 3}}
	img := &stubParser{mime: "image/png", result: &Result{Markdown: "img", Pages: 1}}
	s := NewService(1, []Parser{pdf, img}, nil)

	res, err := s.Parse(context.Background(), "a.pdf", "", nil)
	if err != nil || res.Markdown != "pdf" {
		t.Fatalf("pdf route: %v %+v", err, res)
	}
	res, err = s.Parse(context.Background(), "b.png", "image/png", nil)
	if err != nil || res.Markdown != "img" {
		t.Fatalf("image route: %v %+v", err, res)
	}
}

func TestServiceUnsupported(t *testing.T) {
	s := NewService(1, nil, nil)
	_, err := s.Parse(context.Background(), "x.xyzunknown", "application/x-nope", nil)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestServicePropagatesParserError(t *testing.T) {
	boom := errors.New("engine down")
	s := NewService(1, []Parser{&stubParser{mime: "application/pdf", err: boom}}, nil)
	if _, err := s.Parse(context.Background(), "a.pdf", "application/pdf", nil); !errors.Is(err, boom) {
		t.Fatalf("expected engine error, got %v", err)
	}
}

func TestServiceBoundsConcurrency(t *testing.T) {
	p := &stubParser{mime: "application/pdf", result: &Result{Pages: 1}, delay: 20 * time.Millisecond}
	s := NewService(2, []Parser{p}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Parse(context.Background(), "a.pdf", "application/pdf", nil)
		}()
	}
	wg.Wait()
	if max := p.maxSeen.Load(); max > 2 {
		t.Fatalf("pool allowed %d concurrent parses, limit 2", max)
	}
}

func TestServiceHonorsContext(t *testing.T) {
	p := &stubParser{mime: "application/pdf", result: &Result{Pages: 1}, delay: 100 * time.Millisecond}
	s := NewService(1, []Parser{p}, nil)

	// Occupy the single slot.
	go func() { _, _ = s.Parse(context.Background(), "a.pdf", "application/pdf", nil) }()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Parse(ctx, "b.pdf", "application/pdf", nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
