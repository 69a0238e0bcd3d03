package moodcam

import (
	"errors"
	"image"
	"iter"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"
)

// FaceLocalizer finds candidate faces in a frame. Candidates come in the
// detector's scan order; callers that need one face take the first.
type FaceLocalizer interface {
	Locate(frame gocv.Mat) iter.Seq[Box]
	Close() error
}

// Localizer is a Haar cascade FaceLocalizer.
type Localizer struct {
	mu  sync.Mutex
	cls gocv.CascadeClassifier
}

func NewLocalizer(cascadePath string) (*Localizer, error) {
	if cascadePath == "" {
		slog.Error("ruta de cascada vacía")
		return nil, &StartupError{Component: "detector", Err: errors.New("cascade required")}
	}
	cls := gocv.NewCascadeClassifier()
	if !cls.Load(cascadePath) {
		cls.Close()
		slog.Error("no se pudo cargar haarcascade", "path", cascadePath)
		return nil, &StartupError{Component: "detector", Path: cascadePath, Err: errors.New("cascade load failed")}
	}
	return &Localizer{cls: cls}, nil
}

func (l *Localizer) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cls.Close()
}

// Locate runs the cascade over the grayscale frame. A degenerate frame
// yields no candidates.
func (l *Localizer) Locate(frame gocv.Mat) iter.Seq[Box] {
	if frame.Empty() || frame.Cols() == 0 || frame.Rows() == 0 {
		return candidates(nil, 0, 0)
	}
	gray := grayscale(frame)
	defer gray.Close()

	l.mu.Lock()
	rects := l.cls.DetectMultiScaleWithParams(gray, DetectScaleFactor, DetectMinNeighbors, 0, minFaceSize(), image.Point{})
	l.mu.Unlock()

	return candidates(rects, frame.Cols(), frame.Rows())
}

// candidates clamps each detection to the frame and drops the ones that
// end up empty. The sequence can be ranged over more than once.
func candidates(rects []image.Rectangle, W, H int) iter.Seq[Box] {
	return func(yield func(Box) bool) {
		for _, r := range rects {
			b := clampBox(r, W, H)
			if b.Empty() {
				continue
			}
			if !yield(b) {
				return
			}
		}
	}
}

// First returns the first candidate of seq.
func First(seq iter.Seq[Box]) (Box, bool) {
	for b := range seq {
		return b, true
	}
	return Box{}, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampBox(r image.Rectangle, W, H int) Box {
	r = r.Canon()
	x1 := clamp(r.Min.X, 0, W)
	y1 := clamp(r.Min.Y, 0, H)
	x2 := clamp(r.Max.X, 0, W)
	y2 := clamp(r.Max.Y, 0, H)
	return Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// grayscale returns a single channel copy of frame.
func grayscale(frame gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	switch frame.Channels() {
	case 1:
		frame.CopyTo(&gray)
	case 4:
		gocv.CvtColor(frame, &gray, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	}
	return gray
}
