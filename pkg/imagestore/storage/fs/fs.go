package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/caseflow/imagestore/pkg/imagestore"
)

// Backend is a filesystem implementation of the imagestore.BlobStore
// interface.
type Backend struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{baseDir: config.BaseDir}, nil
}

// Exists reports whether an object is present at objectKey
func (b *Backend) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := os.Stat(filepath.Join(b.baseDir, objectKey))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &imagestore.StorageError{Backend: "fs", Key: objectKey, Op: "exists", Err: err}
	}
	return true, nil
}

// Upload uploads content directly to the filesystem
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	filePath := filepath.Join(b.baseDir, objectKey)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return &imagestore.StorageError{Backend: "fs", Key: objectKey, Op: "upload", Err: err}
	}

	file, err := os.Create(filePath)
	if err != nil {
		return &imagestore.StorageError{Backend: "fs", Key: objectKey, Op: "upload", Err: err}
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return &imagestore.StorageError{Backend: "fs", Key: objectKey, Op: "upload", Err: err}
	}

	return nil
}

// UploadWithParams uploads content with additional parameters. The
// filesystem does not store the MIME type separately; it is detected on
// read.
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params imagestore.UploadParams) error {
	return b.Upload(ctx, params.ObjectKey, reader)
}

// Download downloads content directly from the filesystem
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(b.baseDir, objectKey))
	if os.IsNotExist(err) {
		return nil, &imagestore.StorageError{Backend: "fs", Key: objectKey, Op: "download", Err: imagestore.ErrObjectNotFound}
	}
	if err != nil {
		return nil, &imagestore.StorageError{Backend: "fs", Key: objectKey, Op: "download", Err: err}
	}

	return file, nil
}

// GetObjectMeta retrieves metadata for an object in the filesystem
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*imagestore.ObjectMeta, error) {
	filePath := filepath.Join(b.baseDir, objectKey)

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, &imagestore.StorageError{Backend: "fs", Key: objectKey, Op: "meta", Err: imagestore.ErrObjectNotFound}
	}
	if err != nil {
		return nil, &imagestore.StorageError{Backend: "fs", Key: objectKey, Op: "meta", Err: err}
	}

	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return &imagestore.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
		Metadata:    map[string]string{"content_type": contentType},
	}, nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	filePath := filepath.Join(b.baseDir, objectKey)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return &imagestore.StorageError{Backend: "fs", Key: objectKey, Op: "delete", Err: imagestore.ErrObjectNotFound}
	}

	if err := os.Remove(filePath); err != nil {
		return &imagestore.StorageError{Backend: "fs", Key: objectKey, Op: "delete", Err: err}
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))

	return nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
