package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/ehr-booking/internal/config"
	"github.com/jwalitptl/ehr-booking/internal/repository/postgres"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeDB, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeDB()

			applied, err := migrator.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			for _, name := range applied {
				fmt.Printf("applied %s\n", name)
			}
			fmt.Printf("Applied %d migration(s).\n", len(applied))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeDB, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeDB()

			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func openMigrator() (*postgres.Migrator, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Store != config.StorePostgres {
		return nil, nil, fmt.Errorf("migrations need the postgres store, got %q", cfg.Store)
	}
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	return postgres.NewMigrator(db), db.Close, nil
}
