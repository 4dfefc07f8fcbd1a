package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/domain"
	"github.com/Rrens/alap/internal/repository/migrations"
	_ "github.com/go-sql-driver/mysql"
)

// Store is a KeyValueStore backed by a MySQL table
type Store struct {
	db *sql.DB
}

// NewStore migrates the schema and opens a connection pool
func NewStore(ctx context.Context, cfg config.MySQLConfig) (*Store, error) {
	if err := migrations.Up(migrations.MySQL, cfg.MigrateURL()); err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT `value` FROM kv_store WHERE `key` = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv_store (`key`, `value`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `value` = VALUES(`value`)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
