package moodcam

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"
)

const (
	boxThickness  = 2
	textScale     = 0.9
	textThickness = 2
)

// LabelOrigin is where the label text baseline starts for box b: above
// the box, or below it when above would get too close to the top edge.
func LabelOrigin(b Box) image.Point {
	y := b.Y - labelOffsetAbove
	if y <= labelTopMargin {
		y = b.Y + b.Height + labelOffsetBelow
	}
	return image.Pt(b.X, y)
}

// Render returns an annotated copy of frame. frame itself is untouched.
// Without a box the copy is unmarked; the status only shows in the chrome.
func Render(frame gocv.Mat, p Prediction) gocv.Mat {
	out := frame.Clone()
	if p.Box == nil || p.Box.Empty() {
		return out
	}
	col := p.Label.BoxColor()
	gocv.Rectangle(&out, p.Box.Rect(), col, boxThickness)
	gocv.PutText(&out, p.Label.String(), LabelOrigin(*p.Box), gocv.FontHersheySimplex, textScale, col, textThickness)
	return out
}

// Annotate renders p onto frame and converts the result into a
// runtime-owned image for the presentation side.
func Annotate(frame gocv.Mat, p Prediction, seq uint64, at time.Time) (*AnnotatedFrame, error) {
	out := Render(frame, p)
	defer out.Close()
	img, err := out.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert annotated frame: %w", err)
	}
	return &AnnotatedFrame{Seq: seq, CapturedAt: at, Image: img, Prediction: p}, nil
}
