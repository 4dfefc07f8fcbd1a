package security

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Rrens/alap/internal/domain"
)

var sealedMagic = []byte("ALAPSEAL1:")

// SealedStore encrypts values on their way into another KeyValueStore.
// Values written before encryption was enabled lack the header and are
// returned as-is; the next write seals them.
type SealedStore struct {
	domain.KeyValueStore
	enc *Encryptor
}

// NewSealedStore wraps inner
func NewSealedStore(inner domain.KeyValueStore, enc *Encryptor) *SealedStore {
	return &SealedStore{KeyValueStore: inner, enc: enc}
}

func (s *SealedStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.KeyValueStore.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(raw, sealedMagic) {
		return raw, nil
	}

	plain, err := s.enc.Decrypt(raw[len(sealedMagic):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptState, err)
	}
	return plain, nil
}

func (s *SealedStore) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.enc.Encrypt(value)
	if err != nil {
		return err
	}

	out := make([]byte, 0, len(sealedMagic)+len(sealed))
	out = append(out, sealedMagic...)
	out = append(out, sealed...)
	return s.KeyValueStore.Set(ctx, key, out)
}
