package moodcam

import (
	"log/slog"
	"time"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// Pipeline holds the per-frame stages that need loaded artifacts. It is
// shared by the controller's tick and one-shot analysis.
type Pipeline struct {
	Localizer  FaceLocalizer
	Classifier EmotionClassifier
	Logger     *slog.Logger
}

// NewPipeline loads the classifier model and the face cascade.
func NewPipeline(opts Options) (*Pipeline, error) {
	cls, err := NewClassifier(opts.ModelPath)
	if err != nil {
		return nil, err
	}
	loc, err := NewLocalizer(opts.CascadePath)
	if err != nil {
		cls.Close()
		return nil, err
	}
	return &Pipeline{Localizer: loc, Classifier: cls}, nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Predict runs localization, normalization and classification on frame.
// Only the first face in scan order is classified; any recoverable miss
// degrades to NoFaceDetected.
func (p *Pipeline) Predict(frame gocv.Mat) Prediction {
	box, ok := First(p.Localizer.Locate(frame))
	if !ok {
		return NoFace()
	}
	region, err := Normalize(frame, box)
	if err != nil {
		p.logger().Debug("región vacía", "box", box, "err", err)
		return NoFace()
	}
	label, conf, err := p.Classifier.Classify(region)
	if err != nil {
		p.logger().Warn("clasificación fallida", "err", err)
		return NoFace()
	}
	return Prediction{Label: label, Confidence: conf, Box: &box}
}

// Analyze is Predict followed by annotation of a single still frame.
func (p *Pipeline) Analyze(frame gocv.Mat) (*AnnotatedFrame, error) {
	return Annotate(frame, p.Predict(frame), 0, time.Now())
}

func (p *Pipeline) Close() error {
	var err error
	if p.Localizer != nil {
		err = multierr.Append(err, p.Localizer.Close())
	}
	if p.Classifier != nil {
		err = multierr.Append(err, p.Classifier.Close())
	}
	return err
}
