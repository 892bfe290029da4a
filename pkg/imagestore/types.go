package imagestore

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// MaxUploadBytes is the upload size cap (5 MiB).
const MaxUploadBytes = 5 * 1024 * 1024

// allowedImageTypes is the fixed whitelist of raster image content types
// accepted for upload and served on lookup.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// contentTypeByExt maps a lower-case file extension to its content type.
var contentTypeByExt = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// AllowedImageType reports whether mimeType is in the image whitelist.
func AllowedImageType(mimeType string) bool {
	return allowedImageTypes[mimeType]
}

// ContentTypeForExt returns the content type implied by a file extension,
// or "application/octet-stream" when the extension is unknown.
func ContentTypeForExt(ext string) string {
	if ct, ok := contentTypeByExt[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// UploadRequest carries an inbound upload. The service performs all
// validation itself; callers pass the payload through untouched.
type UploadRequest struct {
	// Owner is the opaque identity of the authenticated uploader. It is
	// used only as a namespace partition and never validated for
	// existence by this package.
	Owner string

	// FileName is the declared file name; its extension becomes part of
	// the storage key and the external reference.
	FileName string

	// DeclaredType is the content type declared by the client. When
	// empty, the type is sniffed from the payload.
	DeclaredType string

	// Data is the raw payload.
	Data []byte
}

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	// URL is the stable, shareable reference for the uploaded image.
	URL string

	// Fingerprint is the content fingerprint of the payload.
	Fingerprint Fingerprint

	// ObjectKey is the storage key the bytes live at.
	ObjectKey string

	// MimeType is the content type the object was stored with.
	MimeType string

	// SizeBytes is the payload size.
	SizeBytes int64

	// Reused reports whether an existing object was reused instead of
	// performing a new durable write.
	Reused bool
}

// ResolvedImage is the outcome of a successful lookup.
type ResolvedImage struct {
	// Body streams the object bytes. The caller must close it.
	Body io.ReadCloser

	// ContentType is the image content type implied by the reference
	// extension, verified against the whitelist.
	ContentType string

	// ObjectKey is the storage key the read was served from.
	ObjectKey string
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// IndexEntry records the reference and storage key produced for one
// (owner, fingerprint) pair.
type IndexEntry struct {
	Owner       string
	Fingerprint Fingerprint
	URL         string
	ObjectKey   string
}

// UploadRecord is a durable, queryable record of a successful upload. It
// is observational metadata only: the storage backend remains the source
// of truth for object existence.
type UploadRecord struct {
	ID          uuid.UUID
	Owner       string
	Fingerprint Fingerprint
	ObjectKey   string
	FileName    string
	MimeType    string
	SizeBytes   int64
	CreatedAt   time.Time
}
