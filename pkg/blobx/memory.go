package blobx

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory store for the named bucket.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{bucket: bucket, objects: make(map[string][]byte)}
}

func (m *MemoryStore) PutBytes(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = buf
	return FormatURI(m.bucket, key), nil
}

func (m *MemoryStore) Read(_ context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if bucket != m.bucket {
		return nil, blobErrors.New(ErrBucketMiss).
			WithDetail("uri_bucket", bucket).
			WithDetail("store_bucket", m.bucket)
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, blobErrors.New(ErrNotFound).WithDetail("uri", uri)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}
