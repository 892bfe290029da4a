package fs_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/imagestore/pkg/imagestore"
	"github.com/caseflow/imagestore/pkg/imagestore/storage/fs"
)

func newTestBackend(t *testing.T) (*fs.Backend, string) {
	t.Helper()
	baseDir := t.TempDir()
	backend, err := fs.New(fs.Config{BaseDir: baseDir})
	require.NoError(t, err)
	return backend, baseDir
}

func TestNew(t *testing.T) {
	t.Run("empty base dir fails", func(t *testing.T) {
		_, err := fs.New(fs.Config{})
		assert.Error(t, err)
	})

	t.Run("creates missing base dir", func(t *testing.T) {
		baseDir := filepath.Join(t.TempDir(), "nested", "store")
		_, err := fs.New(fs.Config{BaseDir: baseDir})
		require.NoError(t, err)

		info, err := os.Stat(baseDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestUploadDownload(t *testing.T) {
	backend, baseDir := newTestBackend(t)
	ctx := context.Background()
	data := []byte("image bytes")
	key := "uploads/alice/abc123.jpg"

	require.NoError(t, backend.UploadWithParams(ctx, bytes.NewReader(data), imagestore.UploadParams{
		ObjectKey: key,
		MimeType:  "image/jpeg",
	}))

	// Keys map to nested paths under the base directory.
	_, err := os.Stat(filepath.Join(baseDir, "uploads", "alice", "abc123.jpg"))
	require.NoError(t, err)

	exists, err := backend.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	body, err := backend.Download(ctx, key)
	require.NoError(t, err)
	defer body.Close()

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestUploadOverwriteIsIdempotent(t *testing.T) {
	backend, _ := newTestBackend(t)
	ctx := context.Background()
	key := "uploads/alice/abc123.jpg"

	require.NoError(t, backend.Upload(ctx, key, bytes.NewReader([]byte("same bytes"))))
	require.NoError(t, backend.Upload(ctx, key, bytes.NewReader([]byte("same bytes"))))

	body, err := backend.Download(ctx, key)
	require.NoError(t, err)
	defer body.Close()

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, []byte("same bytes"), got)
}

func TestMissingObject(t *testing.T) {
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	exists, err := backend.Exists(ctx, "uploads/alice/missing.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = backend.Download(ctx, "uploads/alice/missing.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, imagestore.ErrObjectNotFound)

	var storageErr *imagestore.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "fs", storageErr.Backend)
	assert.Equal(t, "download", storageErr.Op)

	_, err = backend.GetObjectMeta(ctx, "uploads/alice/missing.jpg")
	assert.ErrorIs(t, err, imagestore.ErrObjectNotFound)

	err = backend.Delete(ctx, "uploads/alice/missing.jpg")
	assert.ErrorIs(t, err, imagestore.ErrObjectNotFound)
}

func TestGetObjectMeta(t *testing.T) {
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	// Start with the PNG magic so content detection finds an image.
	data := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	key := "uploads/alice/pic.png"
	require.NoError(t, backend.Upload(ctx, key, bytes.NewReader(data)))

	meta, err := backend.GetObjectMeta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, key, meta.Key)
	assert.Equal(t, int64(len(data)), meta.Size)
	assert.Equal(t, "image/png", meta.ContentType)
}

func TestDeleteCleansEmptyDirectories(t *testing.T) {
	backend, baseDir := newTestBackend(t)
	ctx := context.Background()
	key := "uploads/alice/abc123.jpg"

	require.NoError(t, backend.Upload(ctx, key, bytes.NewReader([]byte("x"))))
	require.NoError(t, backend.Delete(ctx, key))

	exists, err := backend.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	// The now-empty owner directory is removed, the base dir kept.
	_, err = os.Stat(filepath.Join(baseDir, "uploads", "alice"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(baseDir)
	assert.NoError(t, err)
}
