package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process BlobStore for tests. Its URLs point at
// objects that were never published.
type MemoryStore struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	// Err, when set, is returned from every Upload wrapped in *Error.
	Err error
}

// NewMemoryStore creates an empty store reporting URLs under bucket.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{bucket: bucket, objects: make(map[string][]byte)}
}

// Upload implements BlobStore.
func (m *MemoryStore) Upload(_ context.Context, data []byte, contentType string) (string, error) {
	name := ObjectName("adcreative", contentType)
	if m.Err != nil {
		return "", &Error{Bucket: m.bucket, Object: name, Cause: m.Err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = append([]byte(nil), data...)
	return PublicURL(m.bucket, name), nil
}

// Len returns how many objects were stored.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ BlobStore = (*MemoryStore)(nil)
