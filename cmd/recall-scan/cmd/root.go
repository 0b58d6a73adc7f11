package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/recall-lens/internal/config"
	"github.com/oshokin/recall-lens/internal/service/scan"
	"github.com/oshokin/recall-lens/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// x is the horizontal tap position in [0, 1].
	x float64
	// y is the vertical tap position in [0, 1].
	y float64

	// rootCmd represents the base command for a local scan.
	rootCmd = &cobra.Command{
		Use:   "recall-scan <frame>",
		Short: "Check whether the object in a photo is under recall.",
		Long: `Treats the image file as the current camera frame and runs one verification session locally.

The object at the selected point is identified by the configured model and looked up in the
recall registry. On a match the clarifying question is printed and the answer is read from
standard input. The result card is printed when the session ends.

The tap position defaults to the center of the frame.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return scan.Run(ctx, &scan.Options{
				ConfigPath: configPath,
				FramePath:  args[0],
				X:          x,
				Y:          y,
			})
		},
	}
)

// Execute runs the recall-scan CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().Float64VarP(&x, "x", "x", 0.5, "horizontal tap position in [0, 1]")
	rootCmd.Flags().Float64VarP(&y, "y", "y", 0.5, "vertical tap position in [0, 1]")
}
