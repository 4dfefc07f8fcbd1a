package repository

import (
	"context"
	"fmt"

	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/domain"
	"github.com/Rrens/alap/internal/repository/file"
	"github.com/Rrens/alap/internal/repository/memory"
	"github.com/Rrens/alap/internal/repository/mongo"
	"github.com/Rrens/alap/internal/repository/mysql"
	"github.com/Rrens/alap/internal/repository/postgres"
	"github.com/Rrens/alap/internal/repository/redis"
	"github.com/Rrens/alap/internal/repository/sqlite"
	"github.com/Rrens/alap/internal/security"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Storage is the opened persistence backend. Redis is set only when the
// redis backend is selected so callers can share the connection.
type Storage struct {
	KV    domain.KeyValueStore
	Redis *redis.Client
}

// Close releases the backend
func (s *Storage) Close() error {
	return s.KV.Close()
}

// Open connects the backend named by cfg.Backend
func Open(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	st := &Storage{}

	switch cfg.Backend {
	case "memory":
		st.KV = memory.NewStore()
	case "file", "":
		s, err := file.NewStore(afero.NewOsFs(), cfg.File.Dir)
		if err != nil {
			return nil, err
		}
		st.KV = s
	case "sqlite":
		s, err := sqlite.NewStore(ctx, cfg.SQLite)
		if err != nil {
			return nil, err
		}
		st.KV = s
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		st.KV = postgres.NewKVStore(db)
	case "mysql":
		s, err := mysql.NewStore(ctx, cfg.MySQL)
		if err != nil {
			return nil, err
		}
		st.KV = s
	case "redis":
		c, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		st.KV = redis.NewKVStore(c)
		st.Redis = c
	case "mongo":
		s, err := mongo.NewStore(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		st.KV = s
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}

	if cfg.EncryptionKey != "" {
		enc, err := security.NewEncryptorFromPassphrase(cfg.EncryptionKey)
		if err != nil {
			st.KV.Close()
			return nil, err
		}
		st.KV = security.NewSealedStore(st.KV, enc)
	}

	log.Info().
		Str("backend", cfg.Backend).
		Bool("encrypted", cfg.EncryptionKey != "").
		Msg("Session storage ready")

	return st, nil
}
