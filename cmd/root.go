package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/slscollect/internal/capture"
	"github.com/lehigh-university-libraries/slscollect/internal/collector"
	"github.com/lehigh-university-libraries/slscollect/internal/config"
	"github.com/lehigh-university-libraries/slscollect/internal/device"
	"github.com/lehigh-university-libraries/slscollect/internal/trigger"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slscollect <camera> <output-dir>",
		Short: "Structured-light scan data collector",
		Long: `slscollect projects a sequence of binary stripe patterns and saves one
camera frame per pattern as PNG into the output directory.

The camera is a device index (0, 1, ...) or a device path / stream URL.
Press c or space in the preview window to start a session, x to cancel it
and ESC to quit. Settings are read from the YAML file named by
SLSCOLLECT_CONFIG and SLSCOLLECT_* environment variables.`,
		Example: `  # Capture from the first webcam into ./scans
  slscollect 0 ./scans

  # Use a config file with a serial trigger box
  SLSCOLLECT_CONFIG=slscollect.yaml slscollect /dev/video2 /data/scans`,
		Args: cobra.ExactArgs(2),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnvironment()
			if err != nil {
				return err
			}
			cleanup, err := config.ConfigureLogging(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := collector.Open(args[0], args[1], cfg, gocvOpener)
			if err != nil {
				return err
			}
			defer func() {
				if err := c.Close(); err != nil {
					slog.Error("Failed to release devices", "err", err)
				}
			}()

			slog.Info("Collector started", "camera", args[0], "output", args[1])
			return c.Run(cmd.Context())
		},
	}

	return cmd
}

// gocvOpener opens the OpenCV camera and windows and the serial trigger
var gocvOpener = collector.Opener{
	Camera: func(id string, width, height int) (collector.Camera, error) {
		c, err := device.OpenCamera(id, width, height)
		if err != nil {
			return nil, err
		}
		return c, nil
	},
	Projector: func(name string, fullscreen bool) capture.Display {
		return device.OpenProjector(name, fullscreen)
	},
	Preview: func(name string) collector.Screen {
		return device.OpenPreview(name)
	},
	Trigger: func(dev string, baud int) (trigger.Source, error) {
		src, err := trigger.OpenSerial(dev, baud)
		if err != nil {
			return nil, err
		}
		return src, nil
	},
}
