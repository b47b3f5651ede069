package coursecontent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/learnhub/course-content/pkg/coursecontent/objectkey"
)

// StorageManager owns the mapping between a material's identity and its
// backing object across creation, content replacement, migration, and
// deletion. A material has exactly one live backing object at a time.
type StorageManager struct {
	local  BlobStore
	remote BlobStore
	logger *slog.Logger
}

// NewStorageManager creates a manager over the two storage targets. Either
// backend may be nil when the deployment does not offer that target;
// operations addressing a missing backend fail with ErrInvalidStorageType.
func NewStorageManager(local, remote BlobStore, logger *slog.Logger) *StorageManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageManager{local: local, remote: remote, logger: logger}
}

func (m *StorageManager) backend(storageType StorageType) (BlobStore, error) {
	switch storageType {
	case StorageTypeLocal:
		if m.local == nil {
			return nil, fmt.Errorf("%w: local backend not configured", ErrInvalidStorageType)
		}
		return m.local, nil
	case StorageTypeRemote:
		if m.remote == nil {
			return nil, fmt.Errorf("%w: remote backend not configured", ErrInvalidStorageType)
		}
		return m.remote, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStorageType, storageType)
	}
}

// PutResult is the storage descriptor to merge into a material row after a
// successful write.
type PutResult struct {
	StorageType StorageType
	FilePath    string
	ObjectKey   string
	SizeBytes   int64
	MimeType    string
	Type        MaterialType
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Put classifies and writes content for a material under its derived key.
// The key is a pure function of identity, so writing again for the same
// material overwrites the same object: a same-backend replacement needs no
// separate deletion step. A failed write leaves the previous object (if
// any) untouched.
func (m *StorageManager) Put(ctx context.Context, storageType StorageType, courseID, lectureID, materialID uuid.UUID, mimeType string, content io.Reader) (*PutResult, error) {
	materialType, err := MaterialTypeFromMime(mimeType)
	if err != nil {
		return nil, err
	}

	backend, err := m.backend(storageType)
	if err != nil {
		return nil, err
	}

	key := objectkey.ForMaterial(courseID, lectureID, materialID)
	counter := &countingReader{r: content}
	if err := backend.Upload(ctx, key, counter); err != nil {
		return nil, &StorageError{StorageType: storageType, Location: key, Op: "put", Err: err}
	}

	result := &PutResult{
		StorageType: storageType,
		SizeBytes:   counter.n,
		MimeType:    mimeType,
		Type:        materialType,
	}
	if storageType == StorageTypeLocal {
		result.FilePath = key
	} else {
		result.ObjectKey = key
	}
	return result, nil
}

// Release deletes the object held at a storage location. Best-effort:
// "already absent" is not an error, so releases are idempotent and a
// half-completed cleanup can be re-run safely.
func (m *StorageManager) Release(ctx context.Context, storageType StorageType, location string) error {
	if location == "" {
		return nil
	}

	backend, err := m.backend(storageType)
	if err != nil {
		return err
	}

	err = backend.Delete(ctx, location)
	if errors.Is(err, ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return &StorageError{StorageType: storageType, Location: location, Op: "release", Err: err}
	}
	return nil
}

// ReleaseMaterial releases a material's live backing object.
func (m *StorageManager) ReleaseMaterial(ctx context.Context, material *Material) error {
	return m.Release(ctx, material.StorageType, material.Location())
}

// Download returns the content of a material's live backing object.
func (m *StorageManager) Download(ctx context.Context, material *Material) (io.ReadCloser, error) {
	backend, err := m.backend(material.StorageType)
	if err != nil {
		return nil, err
	}

	rc, err := backend.Download(ctx, material.Location())
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, err
		}
		return nil, &StorageError{StorageType: material.StorageType, Location: material.Location(), Op: "download", Err: err}
	}
	return rc, nil
}
