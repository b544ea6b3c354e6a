// Package app provides the command line interface of birdsync.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jcu-ap03/birdsync/internal/config"
	"github.com/jcu-ap03/birdsync/internal/telemetry"
	"github.com/jcu-ap03/birdsync/internal/versions"
)

const telemetryShutdownTimeout = 10 * time.Second

// NewRootCmd creates the root command. When level is set, --debug lowers it
// to debug before any subcommand runs.
func NewRootCmd(level *slog.LevelVar) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:               "birdsync",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Species and occurrence synchronisation for the Atlas of Living Australia",
		Long: `birdsync keeps a local database of bird species and their occurrence records
in step with the Atlas of Living Australia.

A run reconciles the species catalog and then pulls occurrence records for every
local species in parallel, incrementally after the first successful run.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level != nil && v.GetBool("debug") {
				level.Set(slog.LevelDebug)
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	if err := v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		slog.Error("Error binding debug flag", "error", err)
	}

	rootCmd.AddCommand(newSyncCmd(v))
	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.Get()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}

			switch format {
			case "json":
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(output))
			case "":
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), info.String())
			default:
				return fmt.Errorf("unsupported format: %q", format)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// loadConfig reads the configuration file, or returns the defaults when no
// path is given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		slog.Info("No configuration file given, using defaults")
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", path,
		"source", cfg.Source.GetName(),
		"strategy", cfg.Sync.GetStrategy(),
		"storage", cfg.Storage.GetType())
	return cfg, nil
}

// setupTelemetry initializes the providers. The returned function flushes
// them and is safe to defer.
func setupTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, func(), error) {
	tel, err := telemetry.New(ctx,
		telemetry.WithTelemetryConfig(cfg.Telemetry),
		telemetry.WithServiceVersion(versions.Version),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shut down telemetry", "error", err)
		}
	}
	return tel, shutdown, nil
}
