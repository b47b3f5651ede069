package coursecontent_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/course-content/pkg/coursecontent"
	memorystorage "github.com/learnhub/course-content/pkg/coursecontent/storage/memory"
)

func newManager() (*coursecontent.StorageManager, *memorystorage.Backend, *memorystorage.Backend) {
	local := memorystorage.New()
	remote := memorystorage.New()
	return coursecontent.NewStorageManager(local, remote, nil), local, remote
}

func TestPutRoundTrip(t *testing.T) {
	manager, _, _ := newManager()
	ctx := context.Background()
	courseID, lectureID, materialID := uuid.New(), uuid.New(), uuid.New()

	result, err := manager.Put(ctx, coursecontent.StorageTypeLocal, courseID, lectureID, materialID,
		"application/pdf", strings.NewReader("%PDF-1.7 body"))
	require.NoError(t, err)
	assert.Equal(t, coursecontent.MaterialTypePDF, result.Type)
	assert.Equal(t, int64(len("%PDF-1.7 body")), result.SizeBytes)
	assert.NotEmpty(t, result.FilePath)
	assert.Empty(t, result.ObjectKey)

	material := &coursecontent.Material{
		ID:          materialID,
		LectureID:   lectureID,
		CourseID:    courseID,
		StorageType: coursecontent.StorageTypeLocal,
		FilePath:    result.FilePath,
	}

	rc, err := manager.Download(ctx, material)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.7 body", string(data))

	// After release the same read fails with object-not-found.
	require.NoError(t, manager.ReleaseMaterial(ctx, material))
	_, err = manager.Download(ctx, material)
	assert.ErrorIs(t, err, coursecontent.ErrObjectNotFound)
}

func TestPutRejectsUnsupportedMime(t *testing.T) {
	manager, local, _ := newManager()
	ctx := context.Background()

	_, err := manager.Put(ctx, coursecontent.StorageTypeLocal, uuid.New(), uuid.New(), uuid.New(),
		"image/png", strings.NewReader("png bytes"))
	assert.ErrorIs(t, err, coursecontent.ErrUnsupportedType)

	// Rejected before any write reached the backend.
	_, err = local.GetObjectMeta(ctx, "anything")
	assert.ErrorIs(t, err, coursecontent.ErrObjectNotFound)
}

func TestPutOverwritesSameIdentity(t *testing.T) {
	manager, _, _ := newManager()
	ctx := context.Background()
	courseID, lectureID, materialID := uuid.New(), uuid.New(), uuid.New()

	first, err := manager.Put(ctx, coursecontent.StorageTypeRemote, courseID, lectureID, materialID,
		"video/mp4", strings.NewReader("v1"))
	require.NoError(t, err)

	second, err := manager.Put(ctx, coursecontent.StorageTypeRemote, courseID, lectureID, materialID,
		"video/mp4", strings.NewReader("v2 longer"))
	require.NoError(t, err)

	// Same identity, same key: replaced in place.
	assert.Equal(t, first.ObjectKey, second.ObjectKey)
	assert.Equal(t, int64(len("v2 longer")), second.SizeBytes)

	material := &coursecontent.Material{
		ID: materialID, LectureID: lectureID, CourseID: courseID,
		StorageType: coursecontent.StorageTypeRemote,
		ObjectKey:   second.ObjectKey,
	}
	rc, err := manager.Download(ctx, material)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "v2 longer", string(data))
}

func TestReleaseIdempotent(t *testing.T) {
	manager, _, _ := newManager()
	ctx := context.Background()

	// Releasing an absent object is a no-op, not an error.
	assert.NoError(t, manager.Release(ctx, coursecontent.StorageTypeLocal, "never/written"))
	assert.NoError(t, manager.Release(ctx, coursecontent.StorageTypeLocal, ""))
}

func TestMissingBackend(t *testing.T) {
	manager := coursecontent.NewStorageManager(memorystorage.New(), nil, nil)
	ctx := context.Background()

	_, err := manager.Put(ctx, coursecontent.StorageTypeRemote, uuid.New(), uuid.New(), uuid.New(),
		"application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, coursecontent.ErrInvalidStorageType)

	_, err = manager.Put(ctx, "TAPE", uuid.New(), uuid.New(), uuid.New(),
		"application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, coursecontent.ErrInvalidStorageType)
}
