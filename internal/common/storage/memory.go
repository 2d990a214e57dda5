package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
)

type memoryObject struct {
	data []byte
	stat ObjectStat
}

// MemoryStorage keeps objects in process memory. It backs the service when
// no object store is configured and is used in tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

func (m *MemoryStorage) PutObject(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error {
	if objectKey == "" {
		return fmt.Errorf("objectKey is required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("short object: read %d of %d bytes", len(data), size)
	}
	sum := md5.Sum(data)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey] = memoryObject{
		data: data,
		stat: ObjectStat{SizeBytes: int64(len(data)), ETag: hex.EncodeToString(sum[:]), ContentType: contentType},
	}
	return nil
}

func (m *MemoryStorage) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, ObjectStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectKey]
	if !ok {
		return nil, ObjectStat{}, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.stat, nil
}

func (m *MemoryStorage) StatObject(ctx context.Context, objectKey string) (ObjectStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectKey]
	if !ok {
		return ObjectStat{}, ErrObjectNotFound
	}
	return obj.stat, nil
}

func (m *MemoryStorage) RemoveObject(ctx context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectKey)
	return nil
}
