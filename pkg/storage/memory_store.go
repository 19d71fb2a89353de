package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryPhotoStore keeps photos in-process. Used by tests and local runs
// without MinIO.
type MemoryPhotoStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
}

// NewMemoryPhotoStore initializes an empty in-memory photo store.
func NewMemoryPhotoStore() *MemoryPhotoStore {
	return &MemoryPhotoStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

// Put stores the photo bytes under key.
func (m *MemoryPhotoStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read photo: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = data
	m.types[key] = contentType
	m.mu.Unlock()
	return nil
}

// PresignGet returns a fake URL carrying the key. Good enough for tests
// and local development.
func (m *MemoryPhotoStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("photo %q not found", key)
	}
	return "memory://" + key, nil
}

// Delete removes a photo.
func (m *MemoryPhotoStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	delete(m.types, key)
	m.mu.Unlock()
	return nil
}

// Get returns the stored bytes and content type, for test assertions.
func (m *MemoryPhotoStore) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, m.types[key], ok
}

var _ PhotoStore = (*MemoryPhotoStore)(nil)
