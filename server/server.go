package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/user0608/moodcam"
	"gocv.io/x/gocv"
)

const (
	shutdownTimeout = 10 * time.Second
	maxUpload       = "10M"
)

// Analyzer runs one pipeline pass over an uploaded still frame.
type Analyzer interface {
	Analyze(frame gocv.Mat) (*moodcam.AnnotatedFrame, error)
}

// Server exposes the annotated frames of a slot over HTTP.
type Server struct {
	e        *echo.Echo
	slot     *moodcam.Slot
	analyzer Analyzer
	quality  int
}

// New wires the routes. slot may be nil when only uploads are served.
func New(slot *moodcam.Slot, analyzer Analyzer, quality int) *Server {
	e := echo.New()
	e.Logger.SetLevel(log.INFO)
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{e: e, slot: slot, analyzer: analyzer, quality: quality}

	e.GET("/", func(c echo.Context) error { return c.JSON(http.StatusOK, "OK") })
	if slot != nil {
		e.GET("/status", s.handleStatus)
		e.GET("/snapshot", s.handleSnapshot)
		e.GET("/stream", s.handleStream)
	}
	if analyzer != nil {
		e.POST("/classify", NewClassifyHandle(analyzer, quality), middleware.BodyLimit(maxUpload))
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.e }

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = ":1323"
	}
	errCh := make(chan error, 1)
	go func() {
		if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.e.Shutdown(shutdownCtx)
}
