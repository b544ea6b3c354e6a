package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	internalapp "github.com/jcu-ap03/birdsync/internal/app"
	"github.com/jcu-ap03/birdsync/internal/config"
	pkgsync "github.com/jcu-ap03/birdsync/internal/sync"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func newSyncCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a single sync and print its report",
		Long: `Run a single sync against the provider.

The species catalog is reconciled first: species new to the provider are added
and species it no longer lists are deleted together with their occurrences.
Occurrence records are then pulled for every local species and upserted. When a
previous run succeeded only records loaded since its start are requested.

Per-species failures are listed in the report and do not fail the command.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, v)
		},
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	cmd.Flags().String("strategy", "", "Record source strategy: search, download or facet")
	cmd.Flags().Int("workers", 0, "Width of the occurrence worker pool")
	cmd.Flags().Bool("skip-species-add", false, "Do not add species new to the provider")
	cmd.Flags().Bool("skip-species-delete", false, "Do not delete species the provider no longer lists")
	cmd.Flags().Bool("skip-occurrences", false, "Do not sync occurrence records")
	cmd.Flags().StringP("output", "o", outputText, "Report format (text or json)")

	for key, flag := range map[string]string{
		"sync.strategy": "strategy",
		"sync.workers":  "workers",
		"sync.output":   "output",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			slog.Error("Failed to bind flag", "flag", flag, "error", err)
		}
	}

	return cmd
}

func runSync(cmd *cobra.Command, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format := v.GetString("sync.output")
	if format != outputText && format != outputJSON {
		return fmt.Errorf("unsupported output format: %q", format)
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := applySyncFlags(cmd, v, cfg); err != nil {
		return err
	}

	tel, shutdown, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	comps, err := internalapp.BuildComponents(ctx,
		internalapp.WithConfig(cfg),
		internalapp.WithMeterProvider(tel.MeterProvider()),
		internalapp.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := comps.Close(); err != nil {
			slog.Warn("Failed to close repository", "error", err)
		}
	}()

	report, syncErr := comps.Manager.PerformSync(ctx)
	if report != nil {
		if err := writeReport(cmd.OutOrStdout(), report, format); err != nil {
			return err
		}
	}
	if syncErr != nil {
		return fmt.Errorf("sync failed: %w", syncErr)
	}
	return nil
}

// applySyncFlags copies command line overrides onto cfg and validates the result
func applySyncFlags(cmd *cobra.Command, v *viper.Viper, cfg *config.Config) error {
	if strategy := v.GetString("sync.strategy"); strategy != "" {
		cfg.Sync.Strategy = strategy
	}
	if workers := v.GetInt("sync.workers"); workers != 0 {
		cfg.Sync.Workers = workers
	}

	disabled := false
	for flag, target := range map[string]**bool{
		"skip-species-add":    &cfg.Sync.Phases.AddSpecies,
		"skip-species-delete": &cfg.Sync.Phases.DeleteSpecies,
		"skip-occurrences":    &cfg.Sync.Phases.Occurrences,
	} {
		skip, err := cmd.Flags().GetBool(flag)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		if skip {
			*target = &disabled
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func writeReport(w io.Writer, report *pkgsync.Report, format string) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	}

	totals := report.Totals()
	watermark := "unchanged"
	if report.WatermarkAdvanced {
		watermark = "advanced to " + report.StartedAt.Format(time.RFC3339)
	}

	lines := []string{
		fmt.Sprintf("Sync of %s using %s finished in %s", report.Source, report.Strategy, report.Duration()),
		fmt.Sprintf("  species added:   %d", len(report.SpeciesAdded)),
		fmt.Sprintf("  species deleted: %d", len(report.SpeciesDeleted)),
		fmt.Sprintf("  records fetched: %s", humanize.Comma(int64(totals.Fetched))),
		fmt.Sprintf("  inserted:        %s", humanize.Comma(int64(totals.Inserted))),
		fmt.Sprintf("  updated:         %s", humanize.Comma(int64(totals.Updated))),
		fmt.Sprintf("  watermark:       %s", watermark),
	}
	if totals.Skipped > 0 {
		lines = append(lines, fmt.Sprintf("  skipped (no coordinates): %s", humanize.Comma(int64(totals.Skipped))))
	}
	for _, name := range report.NotFound {
		lines = append(lines, "  not found: "+name)
	}
	for _, name := range slices.Sorted(maps.Keys(report.Failed)) {
		lines = append(lines, fmt.Sprintf("  failed: %s: %s", name, report.Failed[name]))
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
