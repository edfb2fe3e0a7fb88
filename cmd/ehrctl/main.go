// Command ehrctl is the operator CLI: schema migrations, staff provisioning
// and demo data.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/ehr-booking/internal/app"
	"github.com/jwalitptl/ehr-booking/internal/config"
	"github.com/jwalitptl/ehr-booking/internal/repository"
	"github.com/jwalitptl/ehr-booking/pkg/logger"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "ehrctl",
		Short:         "Operator tooling for the EHR booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(
		migrateCmd(),
		staffCmd(),
		seedCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type env struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  repository.Store
	close  func() error
}

func bootstrap() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	lg, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console"})
	if err != nil {
		return nil, err
	}
	store, closeStore, err := app.OpenStore(cfg, lg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &env{cfg: cfg, logger: lg, store: store, close: closeStore}, nil
}
