package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jcu-ap03/birdsync/database"
)

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply all pending database migrations to bring the schema up to date.
This command will read the database connection parameters from the config file
and apply all migrations that haven't been run yet.`,
		RunE: runMigrateUp,
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	dbCfg, connString, err := migrationTarget(cmd)
	if err != nil {
		return err
	}

	yes, err := skipConfirmation(cmd)
	if err != nil {
		return err
	}

	if !yes {
		prompt := fmt.Sprintf("About to apply migrations to database %s@%s:%d/%s. Continue?",
			dbCfg.User, dbCfg.Host, dbCfg.Port, dbCfg.Database)
		if !confirm(cmd, prompt) {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	slog.Info("Applying database migrations...")
	if err := database.MigrateUp(connString); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logMigrationVersion(connString)
	return nil
}

func logMigrationVersion(connString string) {
	version, dirty, err := database.GetVersion(connString)
	switch {
	case err != nil:
		slog.Warn("Unable to get migration version", "error", err)
	case dirty:
		slog.Warn("Database is in a dirty state, manual intervention may be required", "version", version)
	default:
		slog.Info("Current migration version", "version", version)
	}
}
