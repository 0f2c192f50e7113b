package display

import (
	"sync"
	"time"
)

// Frame is the latest screen content, kept for the HTTP display view.
type Frame struct {
	Kind       FrameKind `json:"kind"`
	Lines      []string  `json:"lines"`
	RenderedAt time.Time `json:"rendered_at"`
}

// FrameStore is a Renderer that keeps only the most recent frame behind a
// mutex so the HTTP layer can serve it. It never blocks the render path.
type FrameStore struct {
	mu    sync.RWMutex
	width int
	frame Frame
	now   func() time.Time
}

// NewFrameStore creates a frame store wrapping text at the given width.
func NewFrameStore(width int) *FrameStore {
	if width <= 0 {
		width = 100
	}
	return &FrameStore{width: width, now: time.Now}
}

// Current returns a copy of the latest frame.
func (s *FrameStore) Current() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.frame
	out.Lines = append([]string(nil), s.frame.Lines...)
	return out
}

func (s *FrameStore) ShowMessage(text string) {
	s.set(KindMessage, Wrap(text, s.width))
}

func (s *FrameStore) ShowStatus(text string) {
	s.set(KindStatus, []string{text})
}

func (s *FrameStore) Clear() {
	s.set(KindBlank, nil)
}

func (s *FrameStore) Close() error { return nil }

func (s *FrameStore) set(kind FrameKind, lines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = Frame{Kind: kind, Lines: lines, RenderedAt: s.now()}
}
