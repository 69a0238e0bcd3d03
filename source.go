package moodcam

import (
	"errors"
	"log/slog"

	"gocv.io/x/gocv"
)

// FrameSource yields raw frames. The returned Mat belongs to the caller,
// which must Close it.
type FrameSource interface {
	NextFrame() (gocv.Mat, error)
	Close() error
}

// Capture is a FrameSource over a gocv.VideoCapture (camera or file).
type Capture struct {
	vc     *gocv.VideoCapture
	raw    gocv.Mat
	mirror bool
	file   bool
}

// OpenCamera opens the capture device once. Failure is a StartupError.
func OpenCamera(device string, mirror bool) (*Capture, error) {
	if device == "" {
		device = "0"
	}
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		slog.Error("no se pudo abrir la cámara", "device", device, "err", err)
		return nil, &StartupError{Component: "camera", Path: device, Err: err}
	}
	if !vc.IsOpened() {
		vc.Close()
		slog.Error("cámara no disponible", "device", device)
		return nil, &StartupError{Component: "camera", Path: device, Err: errors.New("device not opened")}
	}
	return &Capture{vc: vc, raw: gocv.NewMat(), mirror: mirror}, nil
}

// OpenFile opens a video file. Running out of frames yields ErrEndOfStream.
func OpenFile(path string, mirror bool) (*Capture, error) {
	if path == "" {
		return nil, &StartupError{Component: "video", Err: errors.New("path required")}
	}
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		slog.Error("no se pudo abrir el video", "path", path, "err", err)
		return nil, &StartupError{Component: "video", Path: path, Err: err}
	}
	return &Capture{vc: vc, raw: gocv.NewMat(), mirror: mirror, file: true}, nil
}

// FrameCount is the container's frame count, or 0 for live devices.
func (c *Capture) FrameCount() int {
	if !c.file {
		return 0
	}
	return int(c.vc.Get(gocv.VideoCaptureFrameCount))
}

func (c *Capture) NextFrame() (gocv.Mat, error) {
	if ok := c.vc.Read(&c.raw); !ok || c.raw.Empty() {
		if c.file {
			return gocv.NewMat(), ErrEndOfStream
		}
		return gocv.NewMat(), ErrNoCameraFrame
	}
	out := gocv.NewMat()
	if c.mirror {
		mirrorInto(c.raw, &out)
	} else {
		c.raw.CopyTo(&out)
	}
	return out, nil
}

func (c *Capture) Close() error {
	c.raw.Close()
	return c.vc.Close()
}

// mirrorInto flips src around the vertical axis.
func mirrorInto(src gocv.Mat, dst *gocv.Mat) {
	gocv.Flip(src, dst, 1)
}
