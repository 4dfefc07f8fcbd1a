package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Integration(t *testing.T) {
	uri := os.Getenv("ALAP_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("Requires mongo connection - run as integration test")
	}

	ctx := context.Background()
	s, err := NewStore(ctx, config.MongoConfig{
		URI:        uri,
		Database:   "alap_test",
		Collection: "kv_" + uuid.NewString(),
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, "alap_v1_sessions")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "alap_v1_sessions", []byte(`[1]`)))
	require.NoError(t, s.Set(ctx, "alap_v1_sessions", []byte(`[2]`)))

	got, err := s.Get(ctx, "alap_v1_sessions")
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(got))
}
