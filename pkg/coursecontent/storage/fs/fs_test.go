package fs_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/course-content/pkg/coursecontent"
	"github.com/learnhub/course-content/pkg/coursecontent/storage/fs"
)

func newBackend(t *testing.T) *fs.Backend {
	backend, err := fs.New(fs.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return backend
}

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := fs.New(fs.Config{})
	assert.Error(t, err)
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	backend := newBackend(t)
	ctx := context.Background()
	key := "courses/c1/lectures/l1/materials/m1"

	require.NoError(t, backend.Upload(ctx, key, strings.NewReader("%PDF-1.7 content")))

	rc, err := backend.Download(ctx, key)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 content", string(data))
}

func TestUploadOverwritesInPlace(t *testing.T) {
	backend := newBackend(t)
	ctx := context.Background()
	key := "courses/c1/lectures/l1/materials/m1"

	require.NoError(t, backend.Upload(ctx, key, strings.NewReader("first")))
	require.NoError(t, backend.Upload(ctx, key, strings.NewReader("second")))

	rc, err := backend.Download(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestDeleteThenDownloadFails(t *testing.T) {
	backend := newBackend(t)
	ctx := context.Background()
	key := "a/b/c"

	require.NoError(t, backend.Upload(ctx, key, strings.NewReader("x")))
	require.NoError(t, backend.Delete(ctx, key))

	_, err := backend.Download(ctx, key)
	assert.ErrorIs(t, err, coursecontent.ErrObjectNotFound)

	err = backend.Delete(ctx, key)
	assert.ErrorIs(t, err, coursecontent.ErrObjectNotFound)
}

func TestGetObjectMeta(t *testing.T) {
	backend := newBackend(t)
	ctx := context.Background()
	key := "meta/object"

	require.NoError(t, backend.Upload(ctx, key, strings.NewReader("hello world")))

	meta, err := backend.GetObjectMeta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, key, meta.Key)
	assert.Equal(t, int64(len("hello world")), meta.Size)

	_, err = backend.GetObjectMeta(ctx, "missing")
	assert.ErrorIs(t, err, coursecontent.ErrObjectNotFound)
}
