package moodcam

import (
	"io"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"gocv.io/x/gocv"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource yields black 200x200 frames, except for the calls listed in
// errs which fail with the given error.
type fakeSource struct {
	mu     sync.Mutex
	errs   map[int]error
	calls  int
	closed bool
}

func (s *fakeSource) NextFrame() (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if err := s.errs[i]; err != nil {
		return gocv.NewMat(), err
	}
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 200, gocv.MatTypeCV8UC3), nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeLocalizer struct {
	boxes    []Box
	closeErr error
	closed   bool
}

func (l *fakeLocalizer) Locate(gocv.Mat) iter.Seq[Box] { return slices.Values(l.boxes) }

func (l *fakeLocalizer) Close() error {
	l.closed = true
	return l.closeErr
}

type fakeEmotion struct {
	label    Label
	conf     float64
	err      error
	closeErr error

	mu     sync.Mutex
	calls  int
	closed bool
}

func (c *fakeEmotion) Classify(r *Region) (Label, float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return NoFaceDetected, 0, c.err
	}
	return c.label, c.conf, nil
}

func (c *fakeEmotion) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.closeErr
}

func (c *fakeEmotion) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
