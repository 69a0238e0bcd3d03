package moodcam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// State is the controller lifecycle: Idle -> Running -> ShuttingDown ->
// Stopped, or Idle -> Stopped when startup fails.
type State int32

const (
	Idle State = iota
	Running
	ShuttingDown
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting-down"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stages are the resources a running controller owns exclusively.
type Stages struct {
	Source   FrameSource
	Pipeline *Pipeline
}

func (s *Stages) Close() error {
	var err error
	if s.Source != nil {
		err = multierr.Append(err, s.Source.Close())
	}
	if s.Pipeline != nil {
		err = multierr.Append(err, s.Pipeline.Close())
	}
	return err
}

// SourceFunc opens a FrameSource.
type SourceFunc func() (FrameSource, error)

func Camera(device string, mirror bool) SourceFunc {
	return func() (FrameSource, error) { return OpenCamera(device, mirror) }
}

func VideoFile(path string, mirror bool) SourceFunc {
	return func() (FrameSource, error) { return OpenFile(path, mirror) }
}

// Opener acquires the stages. It runs once, before the first tick.
type Opener func(ctx context.Context) (*Stages, error)

// Open opens the source first and then loads the pipeline artifacts.
// Whatever was opened is released if a later step fails.
func Open(opts Options, source SourceFunc) Opener {
	return func(ctx context.Context) (*Stages, error) {
		src, err := source()
		if err != nil {
			return nil, err
		}
		p, err := NewPipeline(opts)
		if err != nil {
			src.Close()
			return nil, err
		}
		return &Stages{Source: src, Pipeline: p}, nil
	}
}

// ControllerStats is a snapshot of tick outcomes.
type ControllerStats struct {
	Ticks        uint64
	Published    uint64
	CameraMisses uint64
	NoFace       uint64
}

// Controller drives the capture -> detect -> classify -> annotate loop on
// a fixed period and hands each annotated frame to its sink. Ticks never
// overlap; a stop request is honored at the next tick boundary.
type Controller struct {
	open     Opener
	sink     Sink
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger
	annotate func(frame gocv.Mat, p Prediction, seq uint64, at time.Time) (*AnnotatedFrame, error)

	mu     sync.Mutex
	stages *Stages
	seq    uint64

	state    atomic.Int32
	started  atomic.Bool
	ready    chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	ticks, published, misses, noFace atomic.Uint64
}

type ControllerOption func(*Controller)

func WithClock(c clock.Clock) ControllerOption {
	return func(ctl *Controller) { ctl.clock = c }
}

func WithLogger(l *slog.Logger) ControllerOption {
	return func(ctl *Controller) { ctl.logger = l }
}

func WithInterval(d time.Duration) ControllerOption {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.interval = d
		}
	}
}

func NewController(open Opener, sink Sink, opts ...ControllerOption) *Controller {
	c := &Controller{
		open:     open,
		sink:     sink,
		clock:    clock.New(),
		interval: DefaultOptions().Interval,
		logger:   slog.Default(),
		annotate: Annotate,
		ready:    make(chan struct{}),
		stop:     make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) State() State { return State(c.state.Load()) }

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
	c.logger.Debug("estado del pipeline", "state", s)
}

func (c *Controller) Stats() ControllerStats {
	return ControllerStats{
		Ticks:        c.ticks.Load(),
		Published:    c.published.Load(),
		CameraMisses: c.misses.Load(),
		NoFace:       c.noFace.Load(),
	}
}

// Ready is closed once the stages are open and the loop is ticking. It
// stays open forever when startup fails.
func (c *Controller) Ready() <-chan struct{} { return c.ready }

// Stop asks the loop to shut down. It is safe to call more than once.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Run opens the stages and ticks until ctx is done, Stop is called or a
// file source runs dry. A startup failure is returned as is, and no tick
// executes. Otherwise Run returns the errors from releasing the stages.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("controller already %s", c.State())
	}
	stages, err := c.open(ctx)
	if err != nil {
		c.setState(Stopped)
		return err
	}
	if stages.Pipeline != nil && stages.Pipeline.Logger == nil {
		stages.Pipeline.Logger = c.logger
	}
	c.mu.Lock()
	c.stages = stages
	c.mu.Unlock()

	ticker := c.clock.Ticker(c.interval)
	defer ticker.Stop()
	c.setState(Running)
	close(c.ready)
	c.logger.Info("pipeline en ejecución", "interval", c.interval)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-c.stop:
			break loop
		case <-ticker.C:
			if err := c.tick(); errors.Is(err, ErrEndOfStream) {
				c.logger.Info("fin del video")
				break loop
			}
		}
	}
	return c.shutdown()
}

func (c *Controller) shutdown() error {
	c.setState(ShuttingDown)
	c.mu.Lock()
	err := c.stages.Close()
	c.stages = nil
	c.mu.Unlock()
	c.setState(Stopped)

	st := c.Stats()
	c.logger.Info("pipeline detenido",
		"ticks", st.Ticks, "published", st.Published,
		"camera_misses", st.CameraMisses, "no_face", st.NoFace)
	return err
}

// tick runs one iteration. A missing camera frame publishes nothing;
// every other recoverable miss, including a failed annotation, publishes a
// NoFaceDetected frame.
func (c *Controller) tick() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks.Add(1)

	frame, err := c.stages.Source.NextFrame()
	defer frame.Close()
	if err != nil {
		if errors.Is(err, ErrEndOfStream) {
			return err
		}
		c.misses.Add(1)
		c.logger.Debug("sin cuadro de cámara", "err", err)
		return nil
	}

	pred := c.stages.Pipeline.Predict(frame)
	if pred.Label == NoFaceDetected {
		c.noFace.Add(1)
	}

	c.seq++
	now := c.clock.Now()
	out, err := c.annotate(frame, pred, c.seq, now)
	if err != nil && pred.Label != NoFaceDetected {
		c.logger.Warn("no se pudo anotar el cuadro", "label", pred.Label, "err", err)
		c.noFace.Add(1)
		out, err = c.annotate(frame, NoFace(), c.seq, now)
	}
	if err != nil {
		c.logger.Warn("cuadro descartado", "seq", c.seq, "err", err)
		return nil
	}
	c.sink.Publish(out)
	c.published.Add(1)
	return nil
}

// Analyze runs one pass over a still frame through the running
// controller's pipeline, serialized with the ticks.
func (c *Controller) Analyze(frame gocv.Mat) (*AnnotatedFrame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != Running || c.stages == nil {
		return nil, ErrNotRunning
	}
	return c.stages.Pipeline.Analyze(frame)
}
