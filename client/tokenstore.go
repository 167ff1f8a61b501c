package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// TokenStore persists the session token pair between process runs. The
// session manager owns exactly the keys it writes here and clears them
// on teardown; nothing else touches the store.
type TokenStore interface {
	Load() (*TokenPair, error)
	Save(tokens TokenPair) error
	Clear() error
}

// MemoryTokenStore keeps tokens in process memory. Used in tests and in
// embedders that manage persistence themselves.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens *TokenPair
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load() (*TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return nil, nil
	}
	t := *s.tokens
	return &t, nil
}

func (s *MemoryTokenStore) Save(tokens TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := tokens
	s.tokens = &t
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	return nil
}

// FileTokenStore persists tokens as a JSON file with owner-only
// permissions.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a store backed by the given file path. The
// parent directory is created on first save.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Load() (*TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var tokens TokenPair
	if err := json.Unmarshal(data, &tokens); err != nil {
		// A corrupt token file is treated as empty; the user signs in again
		return nil, nil
	}
	return &tokens, nil
}

func (s *FileTokenStore) Save(tokens TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

var (
	_ TokenStore = (*MemoryTokenStore)(nil)
	_ TokenStore = (*FileTokenStore)(nil)
)
