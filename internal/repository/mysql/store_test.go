package mysql

import (
	"context"
	"os"
	"testing"

	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Integration(t *testing.T) {
	password := os.Getenv("ALAP_TEST_MYSQL_PASSWORD")
	if password == "" {
		t.Skip("Requires database connection - run as integration test")
	}

	ctx := context.Background()
	s, err := NewStore(ctx, config.MySQLConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "alap",
		Password: password,
		Database: "alap",
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, "missing-key")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "it-key", []byte("one")))
	require.NoError(t, s.Set(ctx, "it-key", []byte("two")))

	got, err := s.Get(ctx, "it-key")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}
