package imagestore

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrMissingContent indicates an upload with no payload
	ErrMissingContent = errors.New("no file content provided")

	// ErrUnsupportedType indicates a content type outside the image whitelist
	ErrUnsupportedType = errors.New("unsupported content type")

	// ErrPayloadTooLarge indicates an upload exceeding the size cap
	ErrPayloadTooLarge = errors.New("payload exceeds size limit")

	// ErrInvalidReference indicates a malformed image reference
	ErrInvalidReference = errors.New("invalid image reference")

	// ErrObjectNotFound indicates an object was not found in storage
	ErrObjectNotFound = errors.New("object not found")

	// ErrUploadFailed indicates an upload operation failed
	ErrUploadFailed = errors.New("upload failed")

	// ErrDownloadFailed indicates a download operation failed
	ErrDownloadFailed = errors.New("download failed")
)

// StorageError represents an error related to storage backend operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// UploadError represents an error during upload coordination
type UploadError struct {
	Owner       string
	Fingerprint Fingerprint
	Op          string
	Err         error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload operation %s failed for owner %s fingerprint %s: %v", e.Op, e.Owner, e.Fingerprint, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
