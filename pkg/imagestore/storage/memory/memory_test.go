package memory_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/imagestore/pkg/imagestore"
	"github.com/caseflow/imagestore/pkg/imagestore/storage/memory"
)

func TestUploadDownload(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()
	data := []byte("image bytes")
	key := "uploads/alice/abc123.jpg"

	exists, err := backend.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, backend.UploadWithParams(ctx, bytes.NewReader(data), imagestore.UploadParams{
		ObjectKey: key,
		MimeType:  "image/jpeg",
	}))

	exists, err = backend.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	body, err := backend.Download(ctx, key)
	require.NoError(t, err)
	defer body.Close()

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	meta, err := backend.GetObjectMeta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), meta.Size)
	assert.Equal(t, "image/jpeg", meta.ContentType)
}

func TestMissingObject(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	_, err := backend.Download(ctx, "absent")
	require.Error(t, err)
	assert.ErrorIs(t, err, imagestore.ErrObjectNotFound)

	var storageErr *imagestore.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "memory", storageErr.Backend)

	_, err = backend.GetObjectMeta(ctx, "absent")
	assert.ErrorIs(t, err, imagestore.ErrObjectNotFound)

	err = backend.Delete(ctx, "absent")
	assert.ErrorIs(t, err, imagestore.ErrObjectNotFound)
}

func TestDelete(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()
	key := "uploads/alice/abc123.jpg"

	require.NoError(t, backend.Upload(ctx, key, bytes.NewReader([]byte("x"))))
	require.NoError(t, backend.Delete(ctx, key))

	exists, err := backend.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestConcurrentAccess(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := "uploads/alice/shared.jpg"
				err := backend.Upload(ctx, key, bytes.NewReader([]byte("payload")))
				assert.NoError(t, err)
				if ok, err := backend.Exists(ctx, key); err == nil && ok {
					if body, err := backend.Download(ctx, key); err == nil {
						body.Close()
					}
				}
			}
		}()
	}
	wg.Wait()
}
