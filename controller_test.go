package moodcam

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	clk "github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

const testInterval = 10 * time.Millisecond

type harness struct {
	ctl    *Controller
	mock   *clk.Mock
	frames chan *AnnotatedFrame
	src    *fakeSource
	loc    *fakeLocalizer
	cls    *fakeEmotion
	cancel context.CancelFunc
	done   chan error
}

func startController(t *testing.T, src *fakeSource, loc *fakeLocalizer, cls *fakeEmotion, setup ...func(*Controller)) *harness {
	t.Helper()
	h := &harness{
		mock:   clk.NewMock(),
		frames: make(chan *AnnotatedFrame, 16),
		src:    src,
		loc:    loc,
		cls:    cls,
		done:   make(chan error, 1),
	}
	open := func(context.Context) (*Stages, error) {
		return &Stages{Source: src, Pipeline: &Pipeline{Localizer: loc, Classifier: cls}}, nil
	}
	h.ctl = NewController(open, SinkFunc(func(f *AnnotatedFrame) { h.frames <- f }),
		WithClock(h.mock), WithInterval(testInterval), WithLogger(discardLogger()))
	for _, fn := range setup {
		fn(h.ctl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.ctl.Run(ctx) }()
	t.Cleanup(cancel)

	require.Eventually(t, func() bool { return h.ctl.State() == Running }, time.Second, time.Millisecond)
	return h
}

// tick advances the clock by one period and waits for the tick to finish.
func (h *harness) tick(t *testing.T) {
	t.Helper()
	want := h.ctl.Stats().Ticks + 1
	h.mock.Add(testInterval)
	require.Eventually(t, func() bool { return h.ctl.Stats().Ticks >= want }, time.Second, time.Millisecond)
	h.ctl.mu.Lock()
	h.ctl.mu.Unlock()
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(time.Second):
		t.Fatal("controller did not stop")
		return nil
	}
}

func (h *harness) next(t *testing.T) *AnnotatedFrame {
	t.Helper()
	select {
	case f := <-h.frames:
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame published")
		return nil
	}
}

func TestControllerPublishesClassifiedFace(t *testing.T) {
	face := Box{X: 50, Y: 50, Width: 100, Height: 100}
	h := startController(t, &fakeSource{}, &fakeLocalizer{boxes: []Box{face}}, &fakeEmotion{label: Happy, conf: 0.82})

	h.tick(t)
	f := h.next(t)

	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, Happy, f.Prediction.Label)
	assert.InDelta(t, 0.82, f.Prediction.Confidence, 1e-9)
	require.NotNil(t, f.Prediction.Box)
	assert.Equal(t, face, *f.Prediction.Box)
	assert.Equal(t, "Emotion: Happy", f.Status())
	assert.Equal(t, h.mock.Now(), f.CapturedAt)

	got := color.RGBAModel.Convert(f.Image.At(50, 100)).(color.RGBA)
	assert.Equal(t, Happy.BoxColor(), got)
}

func TestControllerNoFace(t *testing.T) {
	h := startController(t, &fakeSource{}, &fakeLocalizer{}, &fakeEmotion{label: Happy, conf: 0.9})

	h.tick(t)
	f := h.next(t)

	assert.Equal(t, NoFaceDetected, f.Prediction.Label)
	assert.Nil(t, f.Prediction.Box)
	assert.Equal(t, "Emotion: No Face Detected", f.Status())
	assert.Zero(t, h.cls.callCount())
	assert.Equal(t, uint64(1), h.ctl.Stats().NoFace)
}

func TestControllerClassifierErrorDegrades(t *testing.T) {
	face := Box{X: 50, Y: 50, Width: 100, Height: 100}
	h := startController(t, &fakeSource{}, &fakeLocalizer{boxes: []Box{face}},
		&fakeEmotion{err: errors.New("bad tensor")})

	h.tick(t)
	f := h.next(t)
	assert.Equal(t, NoFaceDetected, f.Prediction.Label)
	assert.Equal(t, Running, h.ctl.State())
}

func TestControllerCameraMissPublishesNothing(t *testing.T) {
	src := &fakeSource{errs: map[int]error{0: ErrNoCameraFrame}}
	h := startController(t, src, &fakeLocalizer{}, &fakeEmotion{})

	h.tick(t)
	assert.Empty(t, h.frames)
	assert.Equal(t, uint64(1), h.ctl.Stats().CameraMisses)
	assert.Equal(t, Running, h.ctl.State())

	h.tick(t)
	f := h.next(t)
	assert.Equal(t, uint64(1), f.Seq)
}

func TestControllerSeqIncreases(t *testing.T) {
	h := startController(t, &fakeSource{}, &fakeLocalizer{}, &fakeEmotion{})

	var last uint64
	for range 3 {
		h.tick(t)
		f := h.next(t)
		assert.Greater(t, f.Seq, last)
		last = f.Seq
	}
	assert.Equal(t, ControllerStats{Ticks: 3, Published: 3, NoFace: 3}, h.ctl.Stats())
}

func TestControllerStopReleasesStages(t *testing.T) {
	h := startController(t, &fakeSource{}, &fakeLocalizer{}, &fakeEmotion{})

	h.ctl.Stop()
	h.ctl.Stop()
	require.NoError(t, h.wait(t))

	assert.Equal(t, Stopped, h.ctl.State())
	assert.True(t, h.src.isClosed())
	assert.True(t, h.loc.closed)
	assert.True(t, h.cls.closed)

	frame := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer frame.Close()
	_, err := h.ctl.Analyze(frame)
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestControllerContextCancel(t *testing.T) {
	h := startController(t, &fakeSource{}, &fakeLocalizer{}, &fakeEmotion{})
	h.cancel()
	require.NoError(t, h.wait(t))
	assert.Equal(t, Stopped, h.ctl.State())
	assert.True(t, h.src.isClosed())
}

func TestControllerEndOfStream(t *testing.T) {
	src := &fakeSource{errs: map[int]error{1: ErrEndOfStream}}
	h := startController(t, src, &fakeLocalizer{}, &fakeEmotion{})

	h.tick(t)
	h.next(t)
	h.mock.Add(testInterval)
	require.NoError(t, h.wait(t))
	assert.Equal(t, Stopped, h.ctl.State())
	assert.Equal(t, uint64(1), h.ctl.Stats().Published)
}

func TestControllerStartupFailure(t *testing.T) {
	startErr := &StartupError{Component: "model", Path: "missing.onnx", Err: errors.New("not found")}
	published := 0
	ctl := NewController(
		func(context.Context) (*Stages, error) { return nil, startErr },
		SinkFunc(func(*AnnotatedFrame) { published++ }),
		WithClock(clk.NewMock()), WithLogger(discardLogger()),
	)

	err := ctl.Run(context.Background())
	var se *StartupError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "model", se.Component)
	assert.Equal(t, Stopped, ctl.State())
	assert.Zero(t, ctl.Stats().Ticks)
	assert.Zero(t, published)

	assert.Error(t, ctl.Run(context.Background()), "a controller runs once")
}

func TestControllerAnalyze(t *testing.T) {
	face := Box{X: 50, Y: 50, Width: 100, Height: 100}
	h := startController(t, &fakeSource{}, &fakeLocalizer{boxes: []Box{face}}, &fakeEmotion{label: Surprise, conf: 0.6})

	frame := uniformFrame(t, 200, 200, 0)
	f, err := h.ctl.Analyze(frame)
	require.NoError(t, err)
	assert.Equal(t, Surprise, f.Prediction.Label)
	assert.Empty(t, h.frames, "analysis is not published")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "shutting-down", ShuttingDown.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestControllerAnnotationFailureDegrades(t *testing.T) {
	face := Box{X: 50, Y: 50, Width: 100, Height: 100}
	failWithBox := func(c *Controller) {
		c.annotate = func(frame gocv.Mat, p Prediction, seq uint64, at time.Time) (*AnnotatedFrame, error) {
			if p.Box != nil {
				return nil, errors.New("cannot draw")
			}
			return Annotate(frame, p, seq, at)
		}
	}
	h := startController(t, &fakeSource{}, &fakeLocalizer{boxes: []Box{face}},
		&fakeEmotion{label: Happy, conf: 0.82}, failWithBox)

	h.tick(t)
	f := h.next(t)
	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, NoFaceDetected, f.Prediction.Label)
	assert.Nil(t, f.Prediction.Box)
	assert.Equal(t, uint64(1), h.ctl.Stats().NoFace)
}

func TestControllerAnnotationFailureSkipsFrame(t *testing.T) {
	alwaysFail := func(c *Controller) {
		c.annotate = func(gocv.Mat, Prediction, uint64, time.Time) (*AnnotatedFrame, error) {
			return nil, errors.New("cannot convert")
		}
	}
	h := startController(t, &fakeSource{}, &fakeLocalizer{}, &fakeEmotion{}, alwaysFail)

	h.tick(t)
	assert.Empty(t, h.frames)
	assert.Equal(t, Running, h.ctl.State())
	assert.Zero(t, h.ctl.Stats().Published)
}

func TestControllerReady(t *testing.T) {
	h := startController(t, &fakeSource{}, &fakeLocalizer{}, &fakeEmotion{})
	select {
	case <-h.ctl.Ready():
	default:
		t.Fatal("Ready not closed while running")
	}

	failed := NewController(
		func(context.Context) (*Stages, error) { return nil, &StartupError{Component: "camera", Err: errors.New("busy")} },
		SinkFunc(func(*AnnotatedFrame) {}),
		WithClock(clk.NewMock()), WithLogger(discardLogger()),
	)
	require.Error(t, failed.Run(context.Background()))
	select {
	case <-failed.Ready():
		t.Fatal("Ready closed after a failed startup")
	default:
	}
}

func TestOpenReleasesSourceWhenPipelineFails(t *testing.T) {
	src := &fakeSource{}
	opts := DefaultOptions()
	opts.ModelPath = "testdata/missing.onnx"

	ctl := NewController(
		Open(opts, func() (FrameSource, error) { return src, nil }),
		SinkFunc(func(*AnnotatedFrame) { t.Error("nothing may be published") }),
		WithClock(clk.NewMock()), WithLogger(discardLogger()),
	)
	err := ctl.Run(context.Background())

	var se *StartupError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "model", se.Component)
	assert.True(t, src.isClosed())
	assert.Equal(t, Stopped, ctl.State())
	assert.Zero(t, ctl.Stats().Ticks)
	assert.Zero(t, src.calls)
}

func TestOpenSourceFailure(t *testing.T) {
	srcErr := &StartupError{Component: "camera", Path: "0", Err: errors.New("device not opened")}
	_, err := Open(DefaultOptions(), func() (FrameSource, error) { return nil, srcErr })(context.Background())
	assert.ErrorIs(t, err, srcErr)
}
