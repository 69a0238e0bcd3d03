package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/user0608/moodcam"
	"github.com/user0608/moodcam/internal/config"
	"github.com/user0608/moodcam/internal/sink"
)

// replayInterval paces file playback; the tick itself dominates.
const replayInterval = time.Millisecond

var (
	replayInput  string
	replayOutput string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Annotate every frame of a video file into a JPEG sequence",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd.Context(), cfg)
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayInput, "input", "i", "", "Path to input video")
	replayCmd.Flags().StringVarP(&replayOutput, "output", "o", "", "Output directory (default: <MOODCAM_OUTPUT_DIR>/<run id>)")
	replayCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(ctx context.Context, cfg *config.Config) error {
	src, err := moodcam.OpenFile(replayInput, cfg.Mirror)
	if err != nil {
		return err
	}
	total := src.FrameCount()
	if total <= 0 {
		total = -1
	}

	dir := replayOutput
	if dir == "" {
		dir = filepath.Join(cfg.OutputDir, runID)
	}
	files, err := sink.NewFiles(dir, cfg.JPEGQuality, logger)
	if err != nil {
		src.Close()
		return err
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Replaying"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	progress := moodcam.SinkFunc(func(*moodcam.AnnotatedFrame) { bar.Add(1) })

	ctl := moodcam.NewController(
		moodcam.Open(cfg.Options(), func() (moodcam.FrameSource, error) { return src, nil }),
		moodcam.Tee{files, progress},
		moodcam.WithInterval(replayInterval),
		moodcam.WithLogger(logger),
	)
	err = ctl.Run(ctx)
	bar.Finish()

	st := ctl.Stats()
	logger.Info("replay terminado",
		"dir", dir, "saved", files.Saved(), "failed", files.Failed(), "no_face", st.NoFace)
	return err
}
