package moodcam

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCameraFrame means the source had no frame for this tick.
	ErrNoCameraFrame = errors.New("no camera frame")
	// ErrEndOfStream means a file source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
	// ErrEmptyRegion means the face crop had zero area.
	ErrEmptyRegion = errors.New("empty face region")
	// ErrNotRunning is returned by operations that need a running controller.
	ErrNotRunning = errors.New("pipeline is not running")
)

// StartupError is a fatal initialization failure of one component.
type StartupError struct {
	Component string
	Path      string
	Err       error
}

func (e *StartupError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }
