// Package commands holds the command line interface of the occupancy sensor.
package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Lolo20020803/ProyectoSBC/internal/config"
)

var envFile string

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "occupancy",
		Short: "Camera based room occupancy sensor",
		Long: `Detects people approaching or leaving a doorway camera and keeps
the room occupancy count.

The detector watches the camera and notifies the counter on every
approach or recede. The counter keeps the occupancy and publishes it
with the light and air readings over MQTT.

Configuration is read from the environment; a .env file is loaded first
when present.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				_ = godotenv.Load(envFile)
				return
			}
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file instead of .env")

	cmd.AddCommand(NewDetectCmd())
	cmd.AddCommand(NewCounterCmd())
	cmd.AddCommand(NewEventsCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command with ctx, which is cancelled on shutdown
// signals.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
