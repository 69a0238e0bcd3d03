package moodcam

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

// EncodeJPEG encodes an annotated image for streaming or storage.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("imagen vacía")
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// DecodeImage decodes PNG or JPEG bytes into a BGR frame. The caller
// closes the returned Mat.
func DecodeImage(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), errors.New("imagen vacía")
	}
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return img, err
	}
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), errors.New("decode vacío")
	}
	return img, nil
}
