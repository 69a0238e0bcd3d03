package moodcam

import (
	"image"
	"time"
)

// Box is a face bounding box in frame pixel coordinates.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func BoxFromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

func (b Box) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Within reports whether b is non-empty and lies inside a cols x rows frame.
func (b Box) Within(cols, rows int) bool {
	return !b.Empty() && b.Rect().In(image.Rect(0, 0, cols, rows))
}

// RegionSize is the side of the square classifier input.
const RegionSize = 64

// Region is a normalized face crop: RegionSize x RegionSize grayscale
// intensities scaled to [0, 1], row-major.
type Region struct {
	pixels [RegionSize * RegionSize]float32
}

// Shape is the tensor shape the classifier consumes: batch, height,
// width, channels.
func (r *Region) Shape() [4]int { return [4]int{1, RegionSize, RegionSize, 1} }

func (r *Region) Pixels() []float32 { return r.pixels[:] }

func (r *Region) At(x, y int) float32 { return r.pixels[y*RegionSize+x] }

// Prediction is the per-tick outcome. It is never mutated once built.
type Prediction struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        *Box    `json:"box,omitempty"`
}

// NoFace is the degraded prediction of a tick without a usable face.
func NoFace() Prediction {
	return Prediction{Label: NoFaceDetected}
}

// AnnotatedFrame is a display-ready frame handed to the presentation side.
// Image is owned by the Go runtime and must be treated as read-only.
type AnnotatedFrame struct {
	Seq        uint64
	CapturedAt time.Time
	Image      image.Image
	Prediction Prediction
}

func (f *AnnotatedFrame) Status() string { return f.Prediction.Label.StatusText() }

func (f *AnnotatedFrame) ChromeColor() string { return f.Prediction.Label.ChromeColor() }
