package storage

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

type blob struct {
	data        []byte
	contentType string
}

// MemoryStorage keeps blobs in process memory, keyed by opaque ids and
// served under /media/. It is the session-scoped backend: nothing
// survives the process.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		blobs: make(map[string]blob),
	}
}

func (s *MemoryStorage) Save(key, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read blob: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = blob{data: data, contentType: contentType}
	return nil
}

func (s *MemoryStorage) Open(key string) (io.ReadCloser, string, error) {
	s.mu.RLock()
	b, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, "", ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b.data)), b.contentType, nil
}

func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}

func (s *MemoryStorage) URL(key string) string {
	return "/media/" + key
}

// Len reports the number of live blobs. Used to verify the
// allocate-release lifecycle.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
