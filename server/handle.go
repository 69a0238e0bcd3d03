package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/user0608/goones/answer"
	"github.com/user0608/goones/errs"
	"github.com/user0608/moodcam"
)

var acceptedTypes = []string{"image/png", "image/jpeg"}

const streamBoundary = "moodcamframe"

type statusResponse struct {
	Seq         uint64        `json:"seq"`
	Label       moodcam.Label `json:"label"`
	Confidence  float64       `json:"confidence"`
	Box         *moodcam.Box  `json:"box,omitempty"`
	Status      string        `json:"status"`
	ChromeColor string        `json:"chrome_color"`
	CapturedAt  time.Time     `json:"captured_at"`
}

func newStatusResponse(f *moodcam.AnnotatedFrame) statusResponse {
	return statusResponse{
		Seq:         f.Seq,
		Label:       f.Prediction.Label,
		Confidence:  f.Prediction.Confidence,
		Box:         f.Prediction.Box,
		Status:      f.Status(),
		ChromeColor: f.ChromeColor(),
		CapturedAt:  f.CapturedAt,
	}
}

var errNoFrames = errors.New("no frame published yet")

func answerNoFrames(c echo.Context) error {
	return answer.Err(c, errs.WrapError(errNoFrames, "todavía no hay cuadros", http.StatusServiceUnavailable))
}

func (s *Server) handleStatus(c echo.Context) error {
	f, ok := s.slot.Latest()
	if !ok {
		return answerNoFrames(c)
	}
	return c.JSON(http.StatusOK, newStatusResponse(f))
}

func (s *Server) handleSnapshot(c echo.Context) error {
	f, ok := s.slot.Latest()
	if !ok {
		return answerNoFrames(c)
	}
	data, err := moodcam.EncodeJPEG(f.Image, s.quality)
	if err != nil {
		return answer.Err(c, errs.InternalErrorDirect("no se pudo codificar el cuadro"))
	}
	setEmotionHeaders(c, f.Prediction)
	return c.Blob(http.StatusOK, mimetype.Detect(data).String(), data)
}

// handleStream serves an MJPEG stream. Each part is the newest frame at
// the time the previous part was written; frames produced in between are
// skipped.
func (s *Server) handleStream(c echo.Context) error {
	ctx := c.Request().Context()
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "multipart/x-mixed-replace; boundary="+streamBoundary)
	res.Header().Set("Cache-Control", "no-cache")
	res.WriteHeader(http.StatusOK)

	var last uint64
	for {
		f, err := s.slot.Next(ctx, last)
		if err != nil {
			return nil
		}
		last = f.Seq
		data, err := moodcam.EncodeJPEG(f.Image, s.quality)
		if err != nil {
			c.Logger().Warnf("stream: encode seq %d: %v", f.Seq, err)
			continue
		}
		if _, err := fmt.Fprintf(res, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\nX-Emotion-Label: %s\r\n\r\n",
			streamBoundary, len(data), f.Prediction.Label); err != nil {
			return nil
		}
		if _, err := res.Write(data); err != nil {
			return nil
		}
		if _, err := io.WriteString(res, "\r\n"); err != nil {
			return nil
		}
		res.Flush()
	}
}

// NewClassifyHandle annotates an uploaded PNG or JPEG photo and returns it
// as JPEG, with the prediction in the response headers.
func NewClassifyHandle(analyzer Analyzer, quality int) echo.HandlerFunc {
	return func(c echo.Context) error {
		content, err := io.ReadAll(c.Request().Body)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return answer.Err(c, errs.BadRequestDirect("la foto enviada está incompleta o dañada"))
			}
			return answer.Err(c, errs.InternalErrorDirect("no se pudo leer el cuerpo de la solicitud"))
		}
		if len(content) == 0 {
			return answer.Err(c, errs.BadRequestDirect("la foto enviada en la solicitud está vacía"))
		}
		mime := mimetype.Detect(content)
		if !slices.Contains(acceptedTypes, mime.String()) {
			return answer.Err(c, errs.BadRequestDirect("solo se aceptan imágenes en formato PNG o JPG"))
		}

		frame, err := moodcam.DecodeImage(content)
		if err != nil {
			return answer.Err(c, errs.BadRequestDirect("la foto enviada está incompleta o dañada"))
		}
		defer frame.Close()

		out, err := analyzer.Analyze(frame)
		if err != nil {
			if errors.Is(err, moodcam.ErrNotRunning) {
				return answer.Err(c, errs.InternalErrorDirect("el pipeline no está en ejecución"))
			}
			return answer.Err(c, err)
		}
		data, err := moodcam.EncodeJPEG(out.Image, quality)
		if err != nil {
			return answer.Err(c, errs.InternalErrorDirect("no se pudo codificar la imagen"))
		}
		setEmotionHeaders(c, out.Prediction)
		return c.Blob(http.StatusOK, mimetype.Detect(data).String(), data)
	}
}

func setEmotionHeaders(c echo.Context, p moodcam.Prediction) {
	h := c.Response().Header()
	h.Set("X-Emotion-Label", p.Label.String())
	h.Set("X-Emotion-Confidence", strconv.FormatFloat(p.Confidence, 'f', 4, 64))
}
