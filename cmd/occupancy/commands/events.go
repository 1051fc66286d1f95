package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lolo20020803/ProyectoSBC/internal/models"
	"github.com/Lolo20020803/ProyectoSBC/internal/repository/sqlite"
)

var (
	eventsLimit     int
	eventsDirection string
	eventsSince     time.Duration
	eventsJSON      bool
	eventsDB        string
)

// NewEventsCmd creates the events command
func NewEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List stored motion events",
		Long: `List the motion events recorded by the detector, newest first.

Examples:
  occupancy events
  occupancy events --direction approaching --limit 5
  occupancy events --since 1h --json`,
		RunE: runEvents,
	}

	cmd.Flags().IntVar(&eventsLimit, "limit", 20, "Maximum number of events")
	cmd.Flags().StringVar(&eventsDirection, "direction", "", "Only events with this direction (approaching, receding, stationary)")
	cmd.Flags().DurationVar(&eventsSince, "since", 0, "Only events newer than this age")
	cmd.Flags().BoolVar(&eventsJSON, "json", false, "Print JSON")
	cmd.Flags().StringVar(&eventsDB, "db", "", "Database path (overrides DATABASE_PATH)")

	return cmd
}

func runEvents(cmd *cobra.Command, args []string) error {
	path, err := databasePath(eventsDB)
	if err != nil {
		return err
	}

	db, err := sqlite.New(path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	filter := &models.EventFilter{Direction: eventsDirection, Limit: eventsLimit}
	if eventsSince > 0 {
		filter.Since = time.Now().Add(-eventsSince)
	}

	events, err := sqlite.NewMotionEventRepository(db).List(filter)
	if err != nil {
		return fmt.Errorf("listing events: %w", err)
	}

	if eventsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No motion events.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCAMERA\tDIRECTION\tMAGNITUDE")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Camera, e.Direction, e.Magnitude)
	}
	return w.Flush()
}

func databasePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.DatabasePath, nil
}
