// Package memory provides an in-memory storage backend, used in tests.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/learnhub/course-content/pkg/coursecontent"
)

// Backend is an in-memory implementation of the coursecontent.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
	updated map[string]time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string][]byte),
		updated: make(map[string]time.Time),
	}
}

func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[objectKey] = data
	b.updated[objectKey] = time.Now().UTC()
	return nil
}

func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, coursecontent.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return coursecontent.ErrObjectNotFound
	}
	delete(b.objects, objectKey)
	delete(b.updated, objectKey)
	return nil
}

func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*coursecontent.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, coursecontent.ErrObjectNotFound
	}
	return &coursecontent.ObjectMeta{
		Key:       objectKey,
		Size:      int64(len(data)),
		UpdatedAt: b.updated[objectKey],
	}, nil
}
