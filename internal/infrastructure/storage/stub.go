package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	profileapp "github.com/scholarconnect/backend/internal/application/profile"
)

// Ensure StubObjectStorage implements AvatarStorage
var _ profileapp.AvatarStorage = (*StubObjectStorage)(nil)

// StubObjectStorage is an in-memory storage implementation for development
// and tests. Presigned URLs point at a configurable base URL and are never
// actually usable for transfer.
type StubObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]stubObject
	baseURL string
}

type stubObject struct {
	contentType string
	createdAt   time.Time
}

// StubOption configures a StubObjectStorage
type StubOption func(*StubObjectStorage)

// WithBaseURL sets the base URL used when building fake presigned URLs
func WithBaseURL(baseURL string) StubOption {
	return func(s *StubObjectStorage) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewStubObjectStorage creates a new in-memory object storage
func NewStubObjectStorage(opts ...StubOption) *StubObjectStorage {
	s := &StubObjectStorage{
		objects: make(map[string]stubObject),
		baseURL: "http://localhost:9000/stub-bucket",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateUploadURL returns a fake presigned upload URL and records the
// object as present so a subsequent ObjectExists call succeeds.
func (s *StubObjectStorage) GenerateUploadURL(
	_ context.Context,
	storageKey, contentType string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}

	s.mu.Lock()
	s.objects[storageKey] = stubObject{contentType: contentType, createdAt: time.Now()}
	s.mu.Unlock()

	expiresAt := time.Now().Add(expiresIn)
	u := fmt.Sprintf("%s/%s?X-Stub-Signature=upload&X-Stub-Expires=%d",
		s.baseURL, url.PathEscape(storageKey), expiresAt.Unix())
	return u, expiresAt, nil
}

// GenerateDownloadURL returns a fake presigned download URL.
func (s *StubObjectStorage) GenerateDownloadURL(
	_ context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}

	expiresAt := time.Now().Add(expiresIn)
	u := fmt.Sprintf("%s/%s?X-Stub-Signature=download&X-Stub-Expires=%d",
		s.baseURL, url.PathEscape(storageKey), expiresAt.Unix())
	return u, expiresAt, nil
}

// DeleteObject removes an object from the in-memory store. Deleting a
// missing object is not an error, matching S3 semantics.
func (s *StubObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	delete(s.objects, storageKey)
	s.mu.Unlock()
	return nil
}

// ObjectExists reports whether an object has been recorded.
func (s *StubObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}

	s.mu.RLock()
	_, ok := s.objects[storageKey]
	s.mu.RUnlock()
	return ok, nil
}
