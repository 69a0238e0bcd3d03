package moodcam

import (
	"image"
	"time"
)

// Detector tuning. These are part of the pipeline contract and are not
// meant to vary per call.
const (
	DetectScaleFactor  = 1.1
	DetectMinNeighbors = 5
	DetectMinFaceSize  = 30
)

// Label placement relative to the face box.
const (
	labelOffsetAbove = 10
	labelOffsetBelow = 30
	labelTopMargin   = 25
)

type Options struct {
	// CascadePath is the Haar cascade definition for frontal faces.
	CascadePath string
	// ModelPath is the ONNX export of the emotion network.
	ModelPath string
	// Device is a camera index ("0") or a capture URL/path.
	Device string
	// Interval is the tick period of the controller.
	Interval time.Duration
	// Mirror flips frames horizontally before they leave the source.
	Mirror bool
}

func DefaultOptions() Options {
	return Options{
		CascadePath: "haarcascade_files/haarcascade_frontalface_default.xml",
		ModelPath:   "models/fine_tuned_model.onnx",
		Device:      "0",
		Interval:    10 * time.Millisecond,
		Mirror:      true,
	}
}

func minFaceSize() image.Point { return image.Pt(DetectMinFaceSize, DetectMinFaceSize) }
