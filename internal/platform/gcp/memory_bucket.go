package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

const memorySchemePrefix = "memory://"

// MemoryBucket is an in-process BucketService. Failure hooks let tests
// simulate a broken remote for a single operation.
type MemoryBucket struct {
	mu            sync.RWMutex
	objects       map[string][]byte
	publicBaseURL string

	FailUpload func(key string) error
	FailDelete func(key string) error
	FailList   func(prefix string) error
}

func NewMemoryBucket(publicBaseURL string) *MemoryBucket {
	return &MemoryBucket{
		objects:       map[string][]byte{},
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

func (m *MemoryBucket) UploadFile(ctx context.Context, key string, file io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailUpload != nil {
		if err := m.FailUpload(key); err != nil {
			return err
		}
	}
	b, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = b
	m.mu.Unlock()
	return nil
}

func (m *MemoryBucket) DeleteFile(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailDelete != nil {
		if err := m.FailDelete(key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("%q: %w", key, ErrObjectNotFound)
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryBucket) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	b, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *MemoryBucket) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.FailList != nil {
		if err := m.FailList(prefix); err != nil {
			return nil, err
		}
	}
	m.mu.RLock()
	out := []string{}
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	m.mu.RUnlock()
	// GCS lists lexicographically; keep the same order here.
	sort.Strings(out)
	return out, nil
}

func (m *MemoryBucket) GetPublicURL(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if m.publicBaseURL != "" {
		return m.publicBaseURL + "/" + escapeKeyPath(key)
	}
	return memorySchemePrefix + key
}

// Keys returns a sorted snapshot of every stored key.
func (m *MemoryBucket) Keys() []string {
	keys, _ := m.ListKeys(context.Background(), "")
	return keys
}

// MemoryKeyFromURL reverses GetPublicURL for memory:// URIs.
func MemoryKeyFromURL(uri string) (string, bool) {
	if !strings.HasPrefix(uri, memorySchemePrefix) {
		return "", false
	}
	return strings.TrimPrefix(uri, memorySchemePrefix), true
}
