package sink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/user0608/moodcam"
)

// Files writes every published frame as frame_<seq>.jpg into a directory.
// Unlike the slot it keeps every frame, so it is meant for replays where
// the producer runs no faster than the disk.
type Files struct {
	dir     string
	quality int
	logger  *slog.Logger

	saved  atomic.Uint64
	failed atomic.Uint64
}

func NewFiles(dir string, quality int, logger *slog.Logger) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("jpeg quality must be between 1 and 100, got %d", quality)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Files{dir: dir, quality: quality, logger: logger}, nil
}

func (s *Files) Publish(f *moodcam.AnnotatedFrame) {
	if err := s.Save(f); err != nil {
		s.failed.Add(1)
		s.logger.Warn("no se pudo guardar el cuadro", "seq", f.Seq, "err", err)
	}
}

func (s *Files) Save(f *moodcam.AnnotatedFrame) error {
	data, err := moodcam.EncodeJPEG(f.Image, s.quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path(f.Seq), data, 0o644); err != nil {
		return err
	}
	s.saved.Add(1)
	return nil
}

func (s *Files) Path(seq uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame_%06d.jpg", seq))
}

func (s *Files) Saved() uint64  { return s.saved.Load() }
func (s *Files) Failed() uint64 { return s.failed.Load() }
