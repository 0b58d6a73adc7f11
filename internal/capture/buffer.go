package capture

import (
	"sync"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// Buffer keeps the latest frame pushed by a remote client.
type Buffer struct {
	// surface resolves selections without a device hit.
	surface Surface
	// frame is the latest pushed frame.
	frame *Frame
	// mu protects frame.
	mu sync.RWMutex
}

// NewBuffer creates an empty frame buffer.
func NewBuffer(surface Surface) *Buffer {
	return &Buffer{
		surface: surface,
	}
}

// Push replaces the current frame. Empty frames clear the buffer.
func (b *Buffer) Push(frame *Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frame == nil || len(frame.Data) == 0 {
		b.frame = nil
		return
	}

	b.frame = frame
}

// Capture implements Source.
func (b *Buffer) Capture(selection domain.Selection) (*Frame, domain.WorldPosition, error) {
	b.mu.RLock()
	frame := b.frame
	b.mu.RUnlock()

	if frame == nil {
		return nil, domain.WorldPosition{}, domain.ErrNoActiveFrame
	}

	position, err := resolvePosition(b.surface, selection)
	if err != nil {
		return nil, domain.WorldPosition{}, err
	}

	return frame, position, nil
}
