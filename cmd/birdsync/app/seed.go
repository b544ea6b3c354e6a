package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/storage"
)

// debugSpecies is a small catalog for exercising a sync by hand. Gymnorhina
// tibicen is an outdated name the provider resolves to Cracticus tibicen and
// has a very large number of occurrences.
var debugSpecies = []domain.Species{
	{ScientificName: "Gymnorhina tibicen", CommonName: "Australian Magpie"},
	{ScientificName: "Motacilla flava", CommonName: "Yellow Wagtail"},
	{ScientificName: "Ninox strenua", CommonName: "Powerful Owl"},
	{ScientificName: "Falco hypoleucos", CommonName: "Grey Falcon"},
}

// seedStep is one planned change to the repository
type seedStep struct {
	description string
	apply       func(ctx context.Context, repo storage.Repository) error
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Prepare the database for a first sync",
		Long: `Insert the source row occurrences are attributed to.

With --with-debug-species four well known species are added as well, which is
enough to try a sync without pulling the whole catalog. --wipe deletes every
occurrence, species and source first. Don't use --wipe in production!`,
		RunE: runSeed,
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	cmd.Flags().Bool("with-debug-species", false, "Also insert the debug species")
	cmd.Flags().Bool("wipe", false, "Delete all existing data first")
	cmd.Flags().Bool("dry-run", false, "Print the planned actions without applying them")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	wipe, err := cmd.Flags().GetBool("wipe")
	if err != nil {
		return fmt.Errorf("failed to get wipe flag: %w", err)
	}
	withDebug, err := cmd.Flags().GetBool("with-debug-species")
	if err != nil {
		return fmt.Errorf("failed to get with-debug-species flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	steps := planSeed(cfg.Source.GetName(), wipe, withDebug)
	out := cmd.OutOrStdout()

	if dryRun {
		for _, step := range steps {
			_, _ = fmt.Fprintln(out, "would "+step.description)
		}
		return nil
	}

	repo, err := storage.NewRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			slog.Warn("Failed to close repository", "error", err)
		}
	}()

	for _, step := range steps {
		if err := step.apply(ctx, repo); err != nil {
			return fmt.Errorf("failed to %s: %w", step.description, err)
		}
		_, _ = fmt.Fprintln(out, step.description)
	}

	slog.Info("Database seeded", "steps", len(steps))
	return nil
}

// planSeed lists the steps in the order they run. Every step is idempotent
// except the wipe.
func planSeed(sourceName string, wipe, withDebug bool) []seedStep {
	var steps []seedStep

	if wipe {
		steps = append(steps, seedStep{
			description: "wipe all occurrences, species and sources",
			apply: func(ctx context.Context, repo storage.Repository) error {
				return repo.Wipe(ctx)
			},
		})
	}

	steps = append(steps, seedStep{
		description: fmt.Sprintf("ensure source %q exists", sourceName),
		apply: func(ctx context.Context, repo storage.Repository) error {
			_, err := repo.GetSource(ctx, sourceName)
			if err == nil {
				return nil
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			_, err = repo.InsertSource(ctx, sourceName)
			return err
		},
	})

	if withDebug {
		for _, sp := range debugSpecies {
			steps = append(steps, seedStep{
				description: fmt.Sprintf("add species %s (%s)", sp.ScientificName, sp.CommonName),
				apply: func(ctx context.Context, repo storage.Repository) error {
					existing, err := repo.SelectAllSpecies(ctx)
					if err != nil {
						return err
					}
					if slices.ContainsFunc(existing, func(s domain.Species) bool {
						return s.ScientificName == sp.ScientificName
					}) {
						return nil
					}
					_, err = repo.InsertSpecies(ctx, sp.ScientificName, sp.CommonName)
					return err
				},
			})
		}
	}

	return steps
}
