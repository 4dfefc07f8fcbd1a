package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStore_Integration(t *testing.T) {
	password := os.Getenv("ALAP_TEST_POSTGRES_PASSWORD")
	if password == "" {
		t.Skip("Requires database connection - run as integration test")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "alap",
		Password: password,
		Database: "alap",
		SSLMode:  "disable",
		MaxConns: 2,
		MinConns: 1,
	})
	require.NoError(t, err)

	s := NewKVStore(db)
	defer s.Close()

	_, err = s.Get(ctx, "missing-key")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "it-key", []byte(`[]`)))
	got, err := s.Get(ctx, "it-key")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}
