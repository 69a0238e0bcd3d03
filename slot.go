package moodcam

import (
	"context"
	"errors"
	"sync"
)

// ErrSlotClosed is returned to consumers once the slot is closed.
var ErrSlotClosed = errors.New("slot closed")

// Sink accepts annotated frames. Publish must not wait for presentation.
type Sink interface {
	Publish(f *AnnotatedFrame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f *AnnotatedFrame)

func (fn SinkFunc) Publish(f *AnnotatedFrame) { fn(f) }

// Tee publishes every frame to each sink in order.
type Tee []Sink

func (t Tee) Publish(f *AnnotatedFrame) {
	for _, s := range t {
		s.Publish(f)
	}
}

// SlotStats is a snapshot of a Slot's counters.
type SlotStats struct {
	Published uint64
	// Dropped counts frames overwritten before any consumer read them.
	Dropped uint64
}

// Slot is a single-frame mailbox between the pipeline and the
// presentation side. Publishing never blocks and the newest frame always
// replaces the previous one; stale frames are dropped, never queued.
// Frames must carry strictly increasing Seq values.
type Slot struct {
	mu       sync.Mutex
	frame    *AnnotatedFrame
	consumed bool
	changed  chan struct{}
	closed   bool
	stats    SlotStats
}

func NewSlot() *Slot {
	return &Slot{changed: make(chan struct{})}
}

func (s *Slot) Publish(f *AnnotatedFrame) {
	if f == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.frame != nil && !s.consumed {
		s.stats.Dropped++
	}
	s.frame = f
	s.consumed = false
	s.stats.Published++

	close(s.changed)
	s.changed = make(chan struct{})
}

// Latest returns the newest frame without waiting.
func (s *Slot) Latest() (*AnnotatedFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, false
	}
	s.consumed = true
	return s.frame, true
}

// Next waits for a frame with Seq greater than after. A pending frame is
// still delivered after Close; ErrSlotClosed follows once it is read.
func (s *Slot) Next(ctx context.Context, after uint64) (*AnnotatedFrame, error) {
	for {
		s.mu.Lock()
		if s.frame != nil && s.frame.Seq > after {
			f := s.frame
			s.consumed = true
			s.mu.Unlock()
			return f, nil
		}
		if s.closed {
			s.mu.Unlock()
			return nil, ErrSlotClosed
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close wakes every waiting consumer. Later publishes are ignored.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.changed)
}

func (s *Slot) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Slot) Stats() SlotStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
