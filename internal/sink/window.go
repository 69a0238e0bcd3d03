package sink

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/user0608/moodcam"
	"gocv.io/x/gocv"
)

const (
	borderSize  = 8
	statusStrip = 44
	waitKeyMs   = 10
	keyEsc      = 27
)

// Window shows the newest frame of a slot in a highgui window, framed in
// the chrome color of its label.
type Window struct {
	win    *gocv.Window
	slot   *moodcam.Slot
	logger *slog.Logger
}

func NewWindow(title string, slot *moodcam.Slot, logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}
	return &Window{win: gocv.NewWindow(title), slot: slot, logger: logger}
}

// Run displays frames until ctx is done, the slot is closed or the user
// quits with q, Esc or by closing the window. It must be called from the
// main OS thread.
func (w *Window) Run(ctx context.Context) error {
	var last uint64
	for {
		if ctx.Err() != nil || w.slot.Closed() {
			return nil
		}
		if f, ok := w.slot.Latest(); ok && f.Seq != last {
			last = f.Seq
			if err := w.show(f); err != nil {
				w.logger.Warn("no se pudo mostrar el cuadro", "seq", f.Seq, "err", err)
			}
		}
		key := w.win.WaitKey(waitKeyMs)
		if key == 'q' || key == keyEsc {
			w.logger.Info("ventana cerrada por el usuario")
			return nil
		}
		if last > 0 && w.win.GetWindowProperty(gocv.WindowPropertyVisible) < 1 {
			w.logger.Info("ventana cerrada")
			return nil
		}
	}
}

func (w *Window) show(f *moodcam.AnnotatedFrame) error {
	mat, err := gocv.ImageToMatRGB(f.Image)
	if err != nil {
		return err
	}
	defer mat.Close()

	framed, err := withChrome(mat, f)
	if err != nil {
		return err
	}
	defer framed.Close()
	w.win.IMShow(framed)
	return nil
}

func (w *Window) Close() error {
	return w.win.Close()
}

// withChrome surrounds frame with a border in the label's chrome color
// and writes the status line into the bottom strip.
func withChrome(frame gocv.Mat, f *moodcam.AnnotatedFrame) (gocv.Mat, error) {
	chrome, err := chromeRGBA(f.ChromeColor())
	if err != nil {
		return gocv.NewMat(), err
	}
	out := gocv.NewMat()
	gocv.CopyMakeBorder(frame, &out, borderSize, borderSize+statusStrip, borderSize, borderSize, gocv.BorderConstant, chrome)

	origin := image.Pt(borderSize, out.Rows()-statusStrip/2+borderSize/2)
	gocv.PutText(&out, f.Status(), origin, gocv.FontHersheySimplex, 0.8, color.RGBA{A: 255}, 2)
	return out, nil
}

func chromeRGBA(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("chrome color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
