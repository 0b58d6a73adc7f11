package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/recall-lens/internal/config"
	"github.com/oshokin/recall-lens/internal/service/client"
	"github.com/oshokin/recall-lens/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// x is the horizontal tap position in [0, 1].
	x float64
	// y is the vertical tap position in [0, 1].
	y float64

	// rootCmd represents the base command for a remote scan.
	rootCmd = &cobra.Command{
		Use:   "recall-client <frame> [server-address]",
		Short: "Check a photo for recalls through recall-server.",
		Long: `Uploads the image file as the current camera frame and runs one verification session on recall-server.

The client follows the server's session events, prints the clarifying question when the object
matches a recall and sends the answer read from standard input. The result card is printed when
the session ends. Server address can be provided as argument or loaded from configuration file.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use server address argument if provided, otherwise rely on config.
			var serverAddress string
			if len(args) > 1 {
				serverAddress = args[1]
			}

			return client.Run(ctx, &client.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				FramePath:     args[0],
				X:             x,
				Y:             y,
			})
		},
	}
)

// Execute runs the recall-client CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().Float64VarP(&x, "x", "x", 0.5, "horizontal tap position in [0, 1]")
	rootCmd.Flags().Float64VarP(&y, "y", "y", 0.5, "vertical tap position in [0, 1]")
}
