package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/caseflow/imagestore/pkg/imagestore"
)

type recordKey struct {
	owner       string
	fingerprint imagestore.Fingerprint
}

// Repository implements imagestore.Catalog using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	records map[recordKey]*imagestore.UploadRecord
}

// New creates a new in-memory catalog
func New() *Repository {
	return &Repository{
		records: make(map[recordKey]*imagestore.UploadRecord),
	}
}

// RecordUpload stores an upload record. Re-recording the same
// (owner, fingerprint) pair keeps the original record.
func (r *Repository) RecordUpload(ctx context.Context, record *imagestore.UploadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := recordKey{record.Owner, record.Fingerprint}
	if _, exists := r.records[k]; exists {
		return nil
	}

	// Copy to avoid external modifications
	recordCopy := *record
	r.records[k] = &recordCopy

	return nil
}

// GetUpload returns the record for (owner, fingerprint)
func (r *Repository) GetUpload(ctx context.Context, owner string, fingerprint imagestore.Fingerprint) (*imagestore.UploadRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[recordKey{owner, fingerprint}]
	if !exists {
		return nil, imagestore.ErrObjectNotFound
	}

	recordCopy := *record
	return &recordCopy, nil
}

// ListUploads returns all records for an owner, newest first
func (r *Repository) ListUploads(ctx context.Context, owner string) ([]*imagestore.UploadRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*imagestore.UploadRecord
	for k, record := range r.records {
		if k.owner == owner {
			recordCopy := *record
			records = append(records, &recordCopy)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return records, nil
}
