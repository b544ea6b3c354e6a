package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	internalapp "github.com/jcu-ap03/birdsync/internal/app"
	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/sources"
)

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up species in the provider's species index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	cmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format)")

	cmd.AddCommand(&cobra.Command{
		Use:   "name <scientific name>",
		Short: "Print the provider identifier for a scientific name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, func(svc sources.SpeciesLookup) (string, error) {
				return svc.ResolveRemoteID(cmd.Context(), args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "id <identifier>",
		Short: "Print the current scientific name for a provider identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, func(svc sources.SpeciesLookup) (string, error) {
				return svc.ScientificName(cmd.Context(), args[0])
			})
		},
	})

	return cmd
}

func runLookup(cmd *cobra.Command, lookup func(sources.SpeciesLookup) (string, error)) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	client, err := internalapp.NewHTTPClient(cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to create http client: %w", err)
	}
	svc := sources.NewSpeciesService(client, cfg.Provider.GetBieURL(), cfg.Sync.GetCatalogQuery(), cfg.Sync.GetPageSize())

	result, err := lookup(svc)
	if errors.Is(err, domain.ErrSpeciesNotFound) {
		return fmt.Errorf("species not found: %w", err)
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
