package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lolo20020803/ProyectoSBC/internal/app"
)

var detectCamera string

// NewDetectCmd creates the detect command
func NewDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run the motion detector",
		Long: `Capture frames from the camera, classify motion as approaching or
receding and notify the counter.

The detector API (stats, gate, events, live view) listens on PORT.

Examples:
  occupancy detect
  occupancy detect --camera /dev/video2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if detectCamera != "" {
				cfg.CameraDevice = detectCamera
			}

			detector, err := app.NewDetectorApp(cfg)
			if err != nil {
				return fmt.Errorf("starting detector: %w", err)
			}
			return detector.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&detectCamera, "camera", "", "Camera index or video path (overrides CAMERA_DEVICE)")

	return cmd
}
