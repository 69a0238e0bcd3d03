// example/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"log/slog"

	"github.com/user0608/moodcam"
)

func main() {
	p, err := moodcam.NewPipeline(moodcam.DefaultOptions())
	if err != nil {
		slog.Error("init", "err", err)
		return
	}
	defer p.Close()

	in, err := os.ReadFile("input.jpg")
	if err != nil {
		slog.Error("leer input", "err", err)
		return
	}
	frame, err := moodcam.DecodeImage(in)
	if err != nil {
		slog.Error("decodificar input", "err", err)
		return
	}
	defer frame.Close()

	start := time.Now()
	out, err := p.Analyze(frame)
	if err != nil {
		slog.Error("procesar", "err", err)
		return
	}
	fmt.Println("duration (s):", time.Since(start).Seconds())
	fmt.Println(out.Status(), out.Prediction.Confidence)

	jpg, err := moodcam.EncodeJPEG(out.Image, 90)
	if err != nil {
		slog.Error("codificar out", "err", err)
		return
	}
	if err := os.WriteFile("output_emotion.jpg", jpg, 0o644); err != nil {
		slog.Error("guardar out", "err", err)
		return
	}
}
