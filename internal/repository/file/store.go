package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/Rrens/alap/internal/domain"
	"github.com/spf13/afero"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Store keeps one JSON file per key inside a directory
type Store struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// NewStore creates the directory if needed. Pass afero.NewOsFs() in
// production and afero.NewMemMapFs() in tests.
func NewStore(fsys afero.Fs, dir string) (*Store, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &Store{fs: fsys, dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set writes to a temp file and renames it over the target so a crash
// mid-write never leaves a truncated value behind.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp, err := afero.TempFile(s.fs, s.dir, filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		s.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := s.fs.Rename(tmp.Name(), target); err != nil {
		s.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	_, err := s.fs.Stat(s.dir)
	return err
}

func (s *Store) Close() error { return nil }
