package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/imagestore/pkg/imagestore"
	"github.com/caseflow/imagestore/pkg/imagestore/repo/memory"
)

func newRecord(owner, content string, createdAt time.Time) *imagestore.UploadRecord {
	fp := imagestore.Digest([]byte(content))
	return &imagestore.UploadRecord{
		ID:          uuid.New(),
		Owner:       owner,
		Fingerprint: fp,
		ObjectKey:   "uploads/" + owner + "/" + fp.String() + ".jpg",
		FileName:    "photo.jpg",
		MimeType:    "image/jpeg",
		SizeBytes:   int64(len(content)),
		CreatedAt:   createdAt,
	}
}

func TestRecordAndGetUpload(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	record := newRecord("alice", "content-1", time.Now().UTC())
	require.NoError(t, repo.RecordUpload(ctx, record))

	got, err := repo.GetUpload(ctx, "alice", record.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.ObjectKey, got.ObjectKey)

	// The stored record is a copy; mutating the original does not leak.
	record.FileName = "changed.jpg"
	got, err = repo.GetUpload(ctx, "alice", record.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", got.FileName)
}

func TestRecordUploadKeepsOriginal(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	first := newRecord("alice", "content-1", time.Now().UTC())
	require.NoError(t, repo.RecordUpload(ctx, first))

	duplicate := newRecord("alice", "content-1", time.Now().UTC().Add(time.Hour))
	require.NoError(t, repo.RecordUpload(ctx, duplicate))

	got, err := repo.GetUpload(ctx, "alice", first.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID, "duplicate record should not replace the original")
}

func TestGetUploadNotFound(t *testing.T) {
	repo := memory.New()

	_, err := repo.GetUpload(context.Background(), "alice", imagestore.Digest([]byte("absent")))
	require.Error(t, err)
	assert.ErrorIs(t, err, imagestore.ErrObjectNotFound)
}

func TestListUploads(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	base := time.Now().UTC()

	oldest := newRecord("alice", "content-1", base.Add(-2*time.Hour))
	middle := newRecord("alice", "content-2", base.Add(-time.Hour))
	newest := newRecord("alice", "content-3", base)
	other := newRecord("bob", "content-4", base)

	for _, record := range []*imagestore.UploadRecord{middle, oldest, newest, other} {
		require.NoError(t, repo.RecordUpload(ctx, record))
	}

	records, err := repo.ListUploads(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, newest.ID, records[0].ID)
	assert.Equal(t, middle.ID, records[1].ID)
	assert.Equal(t, oldest.ID, records[2].ID)

	records, err = repo.ListUploads(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, records)
}
