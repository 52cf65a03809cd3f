package objectclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/markdave123-py/orthoscan/internal/core"
)

var _ core.ObjectClient = (*MemoryStorage)(nil)

// MemoryStorage keeps objects in process. URLs it returns use the mem:// scheme.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func memKey(bucket, key string) string { return bucket + "/" + key }

func (m *MemoryStorage) UploadFile(ctx context.Context, bucket, key string, data io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	m.mu.Lock()
	m.objects[memKey(bucket, key)] = b
	m.mu.Unlock()

	u := url.URL{Scheme: "mem", Host: bucket, Path: "/" + key}
	return u.String(), nil
}

func (m *MemoryStorage) DeleteFile(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	delete(m.objects, memKey(bucket, key))
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	b, ok := m.objects[memKey(bucket, key)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return bytes.Clone(b), nil
}

func (m *MemoryStorage) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	b, err := m.GetFile(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}
