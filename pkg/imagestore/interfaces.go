package imagestore

import (
	"context"
	"io"
)

// BlobStore defines the interface for storage backends.
//
// A miss must be reported as ErrObjectNotFound (directly or wrapped), not
// as a generic error: the lookup resolver falls through to the next tier
// only on a clean miss, never on an I/O failure.
type BlobStore interface {
	// Exists reports whether an object is present at objectKey. It is a
	// lightweight metadata check, not a full read.
	Exists(ctx context.Context, objectKey string) (bool, error)

	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error
}

// KeyResolver maps identities and fingerprints to storage keys and
// external references. Implementations must be pure: no I/O, no
// randomness, same inputs always yielding the same outputs.
type KeyResolver interface {
	// OwnerKey builds the owner-scoped storage key for a fingerprint.
	OwnerKey(owner string, fp Fingerprint, ext string) (string, error)

	// PublicKey builds the public-namespace storage key for a fingerprint.
	PublicKey(fp Fingerprint, ext string) (string, error)

	// Reference builds the stable external view URL, embedding the owner
	// as a lookup hint.
	Reference(fp Fingerprint, ext, owner string) string
}

// DedupIndex is the process-local acceleration structure mapping
// (owner, fingerprint) to a previously computed reference and key.
// Implementations are never the source of truth: a hit must not be
// treated as proof of non-existence elsewhere, and correctness must hold
// if every lookup misses.
type DedupIndex interface {
	Get(owner string, fp Fingerprint) (IndexEntry, bool)
	Put(e IndexEntry)

	// FindByFingerprint scans entries across all owners.
	FindByFingerprint(fp Fingerprint) []IndexEntry

	Len() int
}

// Catalog defines the interface for the durable upload record store.
// Records are observational: dedup decisions never consult the catalog.
type Catalog interface {
	RecordUpload(ctx context.Context, record *UploadRecord) error
	GetUpload(ctx context.Context, owner string, fingerprint Fingerprint) (*UploadRecord, error)
	ListUploads(ctx context.Context, owner string) ([]*UploadRecord, error)
}

// Service is the public API of the image store.
type Service interface {
	// Upload validates and stores an image, deduplicating against prior
	// uploads by the same owner. It returns the stable external
	// reference for the content.
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)

	// Resolve looks up an image by its reference name
	// ("{fingerprint}.{ext}"), searching the owner namespace, the
	// cross-owner dedup index, and the public namespace in that order.
	// ownerHint guides, but does not authorize, the owner-scoped tier.
	Resolve(ctx context.Context, requestedName, ownerHint string) (*ResolvedImage, error)

	// ListUploads returns the catalog records for an owner, newest first.
	ListUploads(ctx context.Context, owner string) ([]*UploadRecord, error)
}
