package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lolo20020803/ProyectoSBC/internal/repository/sqlite"
)

var migrateDB string

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long:  `Open the database, creating it and its parent directory if needed, and apply the schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := databasePath(migrateDB)
			if err != nil {
				return err
			}

			db, err := sqlite.New(path)
			if err != nil {
				return fmt.Errorf("migrating %s: %w", path, err)
			}
			if err := db.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database ready: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&migrateDB, "db", "", "Database path (overrides DATABASE_PATH)")

	return cmd
}
