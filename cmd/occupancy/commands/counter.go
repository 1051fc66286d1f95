package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lolo20020803/ProyectoSBC/internal/app"
)

var counterRelease bool

// NewCounterCmd creates the counter command
func NewCounterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Run the occupancy counter",
		Long: `Receive entering/leaving notifications on POST /message, keep the
occupancy count and publish telemetry over MQTT when MQTT_BROKER is set.

Examples:
  occupancy counter
  occupancy counter --release`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			counter, err := app.NewCounterApp(cfg, counterRelease)
			if err != nil {
				return fmt.Errorf("starting counter: %w", err)
			}
			return counter.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&counterRelease, "release", false, "Run gin in release mode")

	return cmd
}
