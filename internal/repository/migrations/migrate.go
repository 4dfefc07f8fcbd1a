package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed postgres/*.sql sqlite/*.sql mysql/*.sql
var files embed.FS

// Dialects with an embedded migration set
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
	MySQL    = "mysql"
)

// Up applies all pending migrations for dialect against databaseURL
func Up(dialect, databaseURL string) error {
	return run(dialect, databaseURL, func(m *migrate.Migrate) error { return m.Up() })
}

// Down reverts every applied migration
func Down(dialect, databaseURL string) error {
	return run(dialect, databaseURL, func(m *migrate.Migrate) error { return m.Down() })
}

// Version reports the applied schema version
func Version(dialect, databaseURL string) (uint, bool, error) {
	m, err := open(dialect, databaseURL)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func open(dialect, databaseURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(files, dialect)
	if err != nil {
		return nil, fmt.Errorf("unknown migration set %q: %w", dialect, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func run(dialect, databaseURL string, step func(*migrate.Migrate) error) error {
	m, err := open(dialect, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := step(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug().Str("dialect", dialect).Msg("Database migration: no changes")
			return nil
		}
		return fmt.Errorf("failed to run migration: %w", err)
	}

	log.Info().Str("dialect", dialect).Msg("Database migration: success")
	return nil
}
