package security_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/Rrens/alap/internal/domain"
	"github.com/Rrens/alap/internal/repository/memory"
	"github.com/Rrens/alap/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptor_EncryptDecrypt(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	encryptor, err := security.NewEncryptor(key)
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty", ""},
		{"short", "hello"},
		{"json", `[{"id":"1","title":"New Discussion","messages":[]}]`},
		{"unicode", "বাংলায় একটি কবিতা লেখো 🎉"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := encryptor.Encrypt([]byte(tt.plaintext))
			require.NoError(t, err)

			decrypted, err := encryptor.Decrypt(ciphertext)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, string(decrypted))
		})
	}
}

func TestEncryptor_InvalidKeyLength(t *testing.T) {
	_, err := security.NewEncryptor([]byte("short"))
	assert.Error(t, err)
}

func TestEncryptor_Tampering(t *testing.T) {
	enc, err := security.NewEncryptorFromPassphrase("correct horse")
	require.NoError(t, err)

	ct, err := enc.Encrypt([]byte("secret"))
	require.NoError(t, err)
	ct[len(ct)-1] ^= 0xff

	_, err = enc.Decrypt(ct)
	assert.Error(t, err)

	_, err = enc.Decrypt([]byte{1, 2})
	assert.Error(t, err)
}

func TestNewEncryptorFromPassphrase_Deterministic(t *testing.T) {
	a, err := security.NewEncryptorFromPassphrase("pass")
	require.NoError(t, err)
	b, err := security.NewEncryptorFromPassphrase("pass")
	require.NoError(t, err)
	other, err := security.NewEncryptorFromPassphrase("other")
	require.NoError(t, err)

	ct, err := a.Encrypt([]byte("payload"))
	require.NoError(t, err)

	pt, err := b.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(pt))

	_, err = other.Decrypt(ct)
	assert.Error(t, err)

	_, err = security.NewEncryptorFromPassphrase("")
	assert.Error(t, err)
}

func TestSealedStore(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	enc, err := security.NewEncryptorFromPassphrase("pass")
	require.NoError(t, err)
	sealed := security.NewSealedStore(inner, enc)

	t.Run("values are encrypted at rest", func(t *testing.T) {
		require.NoError(t, sealed.Set(ctx, "k", []byte(`[{"id":"x"}]`)))

		raw, err := inner.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, bytes.Contains(raw, []byte(`"id"`)))

		got, err := sealed.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"x"}]`, string(got))
	})

	t.Run("legacy plaintext passes through", func(t *testing.T) {
		require.NoError(t, inner.Set(ctx, "legacy", []byte(`[]`)))
		got, err := sealed.Get(ctx, "legacy")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(got))
	})

	t.Run("wrong key reports corrupt state", func(t *testing.T) {
		other, err := security.NewEncryptorFromPassphrase("different")
		require.NoError(t, err)

		_, err = security.NewSealedStore(inner, other).Get(ctx, "k")
		assert.ErrorIs(t, err, domain.ErrCorruptState)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := sealed.Get(ctx, "absent")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})
}
