package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/user0608/moodcam/internal/config"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// cfg and logger are resolved once per invocation by the root pre-run.
	cfg    *config.Config
	logger *slog.Logger
	runID  string
)

// Errors are printed once by run, without usage text.
var rootCmd = &cobra.Command{
	Use:           "moodcam",
	Short:         "Real-time facial emotion recognition",
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if err := applyFlags(cmd.Flags(), c); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c
		runID = uuid.NewString()
		logger = config.NewLogger(c.Environment).With("run_id", runID)
		slog.SetDefault(logger)
		return nil
	},
}

func addPipelineFlags(fs *pflag.FlagSet) {
	fs.String("env", "development", "Environment: development or production (overrides MOODCAM_ENV)")
	fs.String("cascade", "", "Path to the Haar cascade XML (overrides MOODCAM_CASCADE_PATH)")
	fs.String("model", "", "Path to the ONNX emotion model (overrides MOODCAM_MODEL_PATH)")
	fs.String("device", "0", "Camera index or capture URL (overrides MOODCAM_CAMERA_DEVICE)")
	fs.Duration("interval", 10*time.Millisecond, "Tick interval (overrides MOODCAM_TICK_INTERVAL)")
	fs.Bool("mirror", true, "Flip frames horizontally (overrides MOODCAM_MIRROR)")
}

// applyFlags lets explicitly set flags win over MOODCAM_* variables. Flags
// left at their defaults never touch the loaded config.
func applyFlags(flags *pflag.FlagSet, c *config.Config) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"env", &c.Environment},
		{"cascade", &c.CascadePath},
		{"model", &c.ModelPath},
		{"device", &c.Device},
		{"display", &c.Display},
	}
	for _, s := range strs {
		if f := flags.Lookup(s.name); f == nil || !f.Changed {
			continue
		}
		v, err := flags.GetString(s.name)
		if err != nil {
			return err
		}
		*s.dst = v
	}
	if flags.Changed("interval") {
		d, err := flags.GetDuration("interval")
		if err != nil {
			return err
		}
		c.TickInterval = d
	}
	if flags.Changed("mirror") {
		m, err := flags.GetBool("mirror")
		if err != nil {
			return err
		}
		c.Mirror = m
	}
	return nil
}

// run executes the command tree and writes a failure as a single line.
func run(ctx context.Context, args []string, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, err)
	}
	return err
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	addPipelineFlags(rootCmd.PersistentFlags())
}
