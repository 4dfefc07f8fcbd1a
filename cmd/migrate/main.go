package main

import (
	"fmt"
	"os"

	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/repository/migrations"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the kv_store schema of the SQL storage backends",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or ./configs/config.yaml)")

	target := func() (string, string, error) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return "", "", err
		}
		return migrationTarget(cfg.Storage)
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dialect, url, err := target()
			if err != nil {
				return err
			}
			fmt.Printf("Applying %s migrations...\n", dialect)
			return migrations.Up(dialect, url)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert every applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			dialect, url, err := target()
			if err != nil {
				return err
			}
			fmt.Printf("Reverting %s migrations...\n", dialect)
			return migrations.Down(dialect, url)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			dialect, url, err := target()
			if err != nil {
				return err
			}
			v, dirty, err := migrations.Version(dialect, url)
			if err != nil {
				return err
			}
			fmt.Printf("%s schema version %d (dirty: %t)\n", dialect, v, dirty)
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// migrationTarget returns the migration set and URL for the configured
// backend. Only the SQL backends carry a schema.
func migrationTarget(cfg config.StorageConfig) (string, string, error) {
	switch cfg.Backend {
	case "postgres":
		return migrations.Postgres, cfg.Postgres.MigrateURL(), nil
	case "sqlite":
		return migrations.SQLite, cfg.SQLite.MigrateURL(), nil
	case "mysql":
		return migrations.MySQL, cfg.MySQL.MigrateURL(), nil
	default:
		return "", "", fmt.Errorf("storage backend %q has no SQL schema", cfg.Backend)
	}
}
