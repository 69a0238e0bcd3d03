package moodcam

import (
	"fmt"
	"image/color"
)

// Label is one of the seven emotions the classifier predicts, plus the
// NoFaceDetected pipeline status. The order of the model outputs is the
// order of the constants.
type Label int

const (
	Angry Label = iota
	Disgust
	Fear
	Happy
	Sad
	Surprise
	Neutral
	// NoFaceDetected is never produced by the model.
	NoFaceDetected

	labelCount
)

// NumEmotions is the length of the classifier's probability vector.
const NumEmotions = int(NoFaceDetected)

var labelNames = [labelCount]string{
	Angry:          "Angry",
	Disgust:        "Disgust",
	Fear:           "Fear",
	Happy:          "Happy",
	Sad:            "Sad",
	Surprise:       "Surprise",
	Neutral:        "Neutral",
	NoFaceDetected: "No Face Detected",
}

// boxColors are drawn onto the frame pixels (box and label text).
var boxColors = [labelCount]color.RGBA{
	Angry:          {R: 255, G: 0, B: 0, A: 255},
	Disgust:        {R: 0, G: 128, B: 0, A: 255},
	Fear:           {R: 128, G: 0, B: 128, A: 255},
	Happy:          {R: 255, G: 255, B: 0, A: 255},
	Sad:            {R: 0, G: 0, B: 255, A: 255},
	Surprise:       {R: 255, G: 165, B: 0, A: 255},
	Neutral:        {R: 128, G: 128, B: 128, A: 255},
	NoFaceDetected: {R: 160, G: 160, B: 160, A: 255},
}

// chromeColors color the presentation surface around the frame
// (border, status text).
var chromeColors = [labelCount]string{
	Angry:          "#ff0000",
	Disgust:        "#008000",
	Fear:           "#800080",
	Happy:          "#ffff00",
	Sad:            "#0000ff",
	Surprise:       "#ffa500",
	Neutral:        "#808080",
	NoFaceDetected: "#afafaf",
}

// Labels returns every label, emotions first in model order.
func Labels() []Label {
	out := make([]Label, 0, labelCount)
	for l := Angry; l < labelCount; l++ {
		out = append(out, l)
	}
	return out
}

func (l Label) Valid() bool { return l >= Angry && l < labelCount }

func (l Label) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return labelNames[l]
}

// BoxColor is the pixel-space color for l.
func (l Label) BoxColor() color.RGBA {
	if !l.Valid() {
		return boxColors[NoFaceDetected]
	}
	return boxColors[l]
}

// ChromeColor is the UI-space color for l as a hex string.
func (l Label) ChromeColor() string {
	if !l.Valid() {
		return chromeColors[NoFaceDetected]
	}
	return chromeColors[l]
}

// StatusText is the line shown next to the frame.
func (l Label) StatusText() string {
	return "Emotion: " + l.String()
}

// ParseLabel is the inverse of String.
func ParseLabel(s string) (Label, error) {
	for l := Angry; l < labelCount; l++ {
		if labelNames[l] == s {
			return l, nil
		}
	}
	return NoFaceDetected, fmt.Errorf("unknown emotion label %q", s)
}

func (l Label) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Label) UnmarshalText(b []byte) error {
	v, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
