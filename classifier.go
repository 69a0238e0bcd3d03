package moodcam

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// EmotionClassifier maps a normalized face region to an emotion and the
// probability the model gave it.
type EmotionClassifier interface {
	Classify(r *Region) (Label, float64, error)
	Close() error
}

// inferFunc runs one forward pass over a (1, 64, 64, 1) input and returns
// the probability vector.
type inferFunc func(input []float32) ([]float32, error)

// Classifier runs the emotion network with the OpenCV DNN module.
type Classifier struct {
	mu    sync.Mutex
	net   *gocv.Net
	infer inferFunc
}

func NewClassifier(modelPath string) (*Classifier, error) {
	if modelPath == "" {
		slog.Error("ruta de modelo vacía")
		return nil, &StartupError{Component: "model", Err: errors.New("model required")}
	}
	if _, err := os.Stat(modelPath); err != nil {
		slog.Error("modelo no encontrado", "path", modelPath, "err", err)
		return nil, &StartupError{Component: "model", Path: modelPath, Err: err}
	}
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		net.Close()
		slog.Error("no se pudo cargar el modelo", "path", modelPath)
		return nil, &StartupError{Component: "model", Path: modelPath, Err: errors.New("network is empty")}
	}
	c := &Classifier{net: &net}
	c.infer = c.forward
	return c, nil
}

func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.net == nil {
		return nil
	}
	err := c.net.Close()
	c.net = nil
	return err
}

// Classify is deterministic: the same region always yields the same
// label and confidence.
func (c *Classifier) Classify(r *Region) (Label, float64, error) {
	if r == nil {
		panic("moodcam: Classify called with nil region")
	}
	c.mu.Lock()
	probs, err := c.infer(r.Pixels())
	c.mu.Unlock()
	if err != nil {
		return NoFaceDetected, 0, fmt.Errorf("inference: %w", err)
	}
	l, p := Decode(probs)
	return l, p, nil
}

func (c *Classifier) forward(input []float32) ([]float32, error) {
	if c.net == nil {
		return nil, errors.New("classifier closed")
	}
	blob := gocv.NewMatWithSizes([]int{1, RegionSize, RegionSize, 1}, gocv.MatTypeCV32F)
	defer blob.Close()
	dst, err := blob.DataPtrFloat32()
	if err != nil {
		return nil, err
	}
	if len(dst) != len(input) {
		panic(fmt.Sprintf("moodcam: input tensor holds %d values, region has %d", len(dst), len(input)))
	}
	copy(dst, input)

	c.net.SetInput(blob, "")
	out := c.net.Forward("")
	defer out.Close()

	probs, err := out.DataPtrFloat32()
	if err != nil {
		return nil, err
	}
	return append([]float32(nil), probs...), nil
}

// Decode picks the most probable emotion. Ties go to the lower index.
func Decode(probs []float32) (Label, float64) {
	if len(probs) != NumEmotions {
		panic(fmt.Sprintf("moodcam: model returned %d probabilities, want %d", len(probs), NumEmotions))
	}
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return Label(best), float64(probs[best])
}
