package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	internalapp "github.com/jcu-ap03/birdsync/internal/app"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled syncs and serve their status",
		Long: `Run a sync every sync.interval (with a small random jitter) and serve the
scheduling state over HTTP:

  /health               liveness probe
  /readiness            storage connectivity
  /version              build information
  /v1/sync/status       phase, schedule and the report of the last run
  /v1/sync/status/species/{name}
                        per-species counts from the last run

A run that is still in progress when the next one is due is not overlapped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, v)
		},
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")

	if err := v.BindPFlag("serve.address", cmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
	}

	return cmd
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	ctx := cmd.Context()
	address := v.GetString("serve.address")

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	tel, shutdownTelemetry, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	syncApp, err := internalapp.NewSyncApp(ctx,
		internalapp.WithConfig(cfg),
		internalapp.WithAddress(address),
		internalapp.WithMeterProvider(tel.MeterProvider()),
		internalapp.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- syncApp.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-errChan:
		if stopErr := syncApp.Stop(defaultGracefulTimeout); stopErr != nil {
			slog.Error("Failed to stop application", "error", stopErr)
		}
		return err
	}

	return syncApp.Stop(defaultGracefulTimeout)
}
