package app

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"github.com/jcu-ap03/birdsync/database"
)

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the database schema down by reverting migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  birdsync migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all data)
  birdsync migrate down --config config.yaml --yes`,
		RunE: runMigrateDown,
	}
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}
	if numSteps > math.MaxInt32 {
		return fmt.Errorf("number of steps exceeds maximum allowed value")
	}

	_, connString, err := migrationTarget(cmd)
	if err != nil {
		return err
	}

	if err := confirmMigrateDown(cmd, numSteps); err != nil {
		return err
	}

	if numSteps == 0 {
		slog.Warn("Migrating down all steps - this will remove all schema!")
	} else {
		slog.Info("Migrating down", "steps", numSteps)
	}

	if err := database.MigrateDown(connString, int(numSteps)); err != nil { // #nosec G115 -- bounded above
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Migration completed successfully")
	logMigrationVersion(connString)
	return nil
}

func confirmMigrateDown(cmd *cobra.Command, numSteps uint) error {
	yes, err := skipConfirmation(cmd)
	if err != nil {
		return err
	}
	if yes {
		return nil
	}

	var prompt string
	if numSteps == 0 {
		prompt = "WARNING: This will migrate down ALL steps and may result in complete data loss. Continue?"
	} else {
		prompt = fmt.Sprintf("WARNING: This will migrate down %d step(s) and may result in data loss. Continue?", numSteps)
	}

	if !confirm(cmd, prompt) {
		slog.Info("Migration cancelled")
		return fmt.Errorf("migration cancelled by user")
	}

	return nil
}
