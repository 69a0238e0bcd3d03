package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/user0608/moodcam"
	"github.com/user0608/moodcam/internal/config"
	"github.com/user0608/moodcam/internal/sink"
	"github.com/user0608/moodcam/server"
	"golang.org/x/sync/errgroup"
)

const windowTitle = "Emotion Recognition"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify emotions from the live camera",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLive(cmd.Context(), cfg)
	},
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.String("display", config.DisplayWindow, "Presentation: window, stream, both, none (overrides MOODCAM_DISPLAY_MODE)")
}

func init() {
	addRunFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

// awaitRunning reports whether ready closed before ctx ended. A failed
// startup cancels ctx, so no window is ever opened for it.
func awaitRunning(ctx context.Context, ready <-chan struct{}) bool {
	select {
	case <-ready:
		return ctx.Err() == nil
	case <-ctx.Done():
		return false
	}
}

// runLive drives the controller in the background. The window, when
// enabled, runs on the calling goroutine because highgui needs the main
// thread.
func runLive(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slot := moodcam.NewSlot()
	ctl := moodcam.NewController(
		moodcam.Open(cfg.Options(), moodcam.Camera(cfg.Device, cfg.Mirror)),
		slot,
		moodcam.WithInterval(cfg.TickInterval),
		moodcam.WithLogger(logger),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		defer slot.Close()
		return ctl.Run(gctx)
	})
	if cfg.WantsStream() {
		srv := server.New(slot, ctl, cfg.JPEGQuality)
		logger.Info("servidor de video escuchando", "addr", cfg.ListenAddr)
		g.Go(func() error { return srv.Run(gctx, cfg.ListenAddr) })
	}

	if cfg.WantsWindow() && awaitRunning(gctx, ctl.Ready()) {
		w := sink.NewWindow(windowTitle, slot, logger)
		err := w.Run(gctx)
		w.Close()
		if err != nil {
			logger.Warn("error en la ventana", "err", err)
		}
		cancel()
	}
	return g.Wait()
}
