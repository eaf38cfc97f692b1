package blob

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Compile-time interface guard.
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps objects in memory. main picks it alongside the memory
// entity store so a -store=memory run leaves nothing on disk.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

// Put reads r fully and stores it under key.
func (m *MemoryStore) Put(_ context.Context, key, contentType string, r io.Reader) (*Info, error) {
	if !ValidKey(key) {
		return nil, ErrInvalidKey
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = contentTypeFor(key)
	}

	m.mu.Lock()
	m.objects[key] = memoryObject{data: b, contentType: contentType}
	m.mu.Unlock()

	return &Info{Key: key, ContentType: contentType, Size: int64(len(b))}, nil
}

// Get returns the object under key, or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, *Info, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}
	info := &Info{Key: key, ContentType: obj.contentType, Size: int64(len(obj.data))}
	return io.NopCloser(bytes.NewReader(obj.data)), info, nil
}

// Delete removes the object under key, or reports ErrNotFound.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
