package moodcam

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Normalize crops box out of frame, converts only the crop to grayscale
// and turns it into the classifier input: area-resampled to RegionSize x
// RegionSize, scaled to [0, 1].
func Normalize(frame gocv.Mat, box Box) (*Region, error) {
	if frame.Empty() {
		return nil, ErrEmptyRegion
	}
	b := clampBox(box.Rect(), frame.Cols(), frame.Rows())
	if b.Empty() {
		return nil, ErrEmptyRegion
	}

	roi := frame.Region(b.Rect())
	defer roi.Close()
	if roi.Empty() {
		return nil, ErrEmptyRegion
	}
	gray := grayscale(roi)
	defer gray.Close()

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(gray, &small, image.Pt(RegionSize, RegionSize), 0, 0, gocv.InterpolationArea)

	if small.Rows() != RegionSize || small.Cols() != RegionSize || small.Type() != gocv.MatTypeCV8UC1 {
		panic(fmt.Sprintf("moodcam: resized region is %dx%d type %v, want %dx%d CV_8UC1",
			small.Cols(), small.Rows(), small.Type(), RegionSize, RegionSize))
	}
	return regionFromGray(small.ToBytes()), nil
}

// regionFromGray rescales 8-bit intensities in row-major order.
func regionFromGray(px []byte) *Region {
	if len(px) != RegionSize*RegionSize {
		panic(fmt.Sprintf("moodcam: region has %d pixels, want %d", len(px), RegionSize*RegionSize))
	}
	r := &Region{}
	for i, v := range px {
		r.pixels[i] = float32(v) / 255
	}
	return r
}
