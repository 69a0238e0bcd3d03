package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user0608/moodcam"
	"github.com/user0608/moodcam/internal/config"
)

var (
	classifyInput  string
	classifyOutput string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Annotate the first face of a single photo",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClassify(cfg)
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyInput, "input", "i", "", "Path to a PNG or JPEG photo")
	classifyCmd.Flags().StringVarP(&classifyOutput, "output", "o", "annotated.jpg", "Path to the annotated JPEG")
	classifyCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cfg *config.Config) error {
	p, err := moodcam.NewPipeline(cfg.Options())
	if err != nil {
		return err
	}
	defer p.Close()
	p.Logger = logger

	data, err := os.ReadFile(classifyInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	frame, err := moodcam.DecodeImage(data)
	if err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	defer frame.Close()

	out, err := p.Analyze(frame)
	if err != nil {
		return err
	}
	jpg, err := moodcam.EncodeJPEG(out.Image, cfg.JPEGQuality)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if err := os.WriteFile(classifyOutput, jpg, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("%s\t%.4f\n", out.Prediction.Label, out.Prediction.Confidence)
	return nil
}
