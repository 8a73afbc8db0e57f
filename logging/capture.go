package logging

import (
	"context"
	"log/slog"
	"sync"
)

// Record is one captured log record in decoded form.
type Record struct {
	Level      string
	Message    string
	Attributes map[string]any
}

// CaptureHandler is an slog.Handler that stores records in memory. It exists
// for tests that assert on what a pipeline run logged.
type CaptureHandler struct {
	mu      sync.Mutex
	records []Record
	attrs   []slog.Attr
}

// NewCaptureHandler creates an empty CaptureHandler.
func NewCaptureHandler() *CaptureHandler {
	return &CaptureHandler{}
}

// Enabled reports true for every level so nothing is filtered out.
func (h *CaptureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle stores the record.
func (h *CaptureHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := Record{
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]any, r.NumAttrs()+len(h.attrs)),
	}
	for _, a := range h.attrs {
		entry.Attributes[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[a.Key] = a.Value.Resolve().Any()
		return true
	})

	h.mu.Lock()
	h.records = append(h.records, entry)
	h.mu.Unlock()
	return nil
}

// WithAttrs returns a handler sharing this handler's storage with additional
// pinned attributes.
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &sharedCapture{parent: h, attrs: merged}
}

// WithGroup is accepted but groups are flattened; tests only need keys.
func (h *CaptureHandler) WithGroup(name string) slog.Handler {
	return h
}

// Records returns a copy of everything captured so far.
func (h *CaptureHandler) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// Messages returns the captured messages in order.
func (h *CaptureHandler) Messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.records))
	for i, r := range h.records {
		out[i] = r.Message
	}
	return out
}

// sharedCapture forwards to the parent handler with extra attributes.
type sharedCapture struct {
	parent *CaptureHandler
	attrs  []slog.Attr
}

func (s *sharedCapture) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (s *sharedCapture) Handle(ctx context.Context, r slog.Record) error {
	entry := Record{
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]any, r.NumAttrs()+len(s.attrs)),
	}
	for _, a := range s.attrs {
		entry.Attributes[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[a.Key] = a.Value.Resolve().Any()
		return true
	})

	s.parent.mu.Lock()
	s.parent.records = append(s.parent.records, entry)
	s.parent.mu.Unlock()
	return nil
}

func (s *sharedCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(s.attrs)+len(attrs))
	merged = append(merged, s.attrs...)
	merged = append(merged, attrs...)
	return &sharedCapture{parent: s.parent, attrs: merged}
}

func (s *sharedCapture) WithGroup(name string) slog.Handler {
	return s
}
