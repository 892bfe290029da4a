package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Upload validates the payload, computes its fingerprint, and stores the
// bytes unless identical content from the same owner already exists.
//
// The dedup index is consulted first as a short-circuit; on an index miss
// the backend existence check is the actual correctness guarantee, since
// the index is lost on process restart and never shared across instances.
func (s *service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.Data) == 0 {
		return nil, ErrMissingContent
	}

	mimeType := declaredOrSniffedType(req.DeclaredType, req.Data)
	if !AllowedImageType(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	if len(req.Data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(req.Data), MaxUploadBytes)
	}

	fp := Digest(req.Data)

	ext, err := ExtFromFileName(req.FileName)
	if err != nil {
		return nil, err
	}

	// Short-circuit: an index hit means this owner already uploaded this
	// content during the lifetime of this process. No backend I/O.
	if entry, ok := s.index.Get(req.Owner, fp); ok {
		return &UploadResult{
			URL:         entry.URL,
			Fingerprint: fp,
			ObjectKey:   entry.ObjectKey,
			MimeType:    mimeType,
			SizeBytes:   int64(len(req.Data)),
			Reused:      true,
		}, nil
	}

	objectKey, err := s.keys.OwnerKey(req.Owner, fp, ext)
	if err != nil {
		return nil, err
	}

	// The index is not authoritative: a miss proves nothing about the
	// backend, which may have been populated by a prior process instance.
	exists, err := s.store.Exists(ctx, objectKey)
	if err != nil {
		return nil, &UploadError{Owner: req.Owner, Fingerprint: fp, Op: "exists", Err: err}
	}

	if !exists {
		err := s.store.UploadWithParams(ctx, bytes.NewReader(req.Data), UploadParams{
			ObjectKey: objectKey,
			MimeType:  mimeType,
		})
		if err != nil {
			// No index entry on a failed write.
			return nil, &UploadError{Owner: req.Owner, Fingerprint: fp, Op: "upload", Err: err}
		}
	}

	url := s.keys.Reference(fp, ext, req.Owner)
	s.index.Put(IndexEntry{
		Owner:       req.Owner,
		Fingerprint: fp,
		URL:         url,
		ObjectKey:   objectKey,
	})

	if s.catalog != nil && !exists {
		record := &UploadRecord{
			ID:          uuid.New(),
			Owner:       req.Owner,
			Fingerprint: fp,
			ObjectKey:   objectKey,
			FileName:    req.FileName,
			MimeType:    mimeType,
			SizeBytes:   int64(len(req.Data)),
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.catalog.RecordUpload(ctx, record); err != nil {
			// The catalog is observational; a failed record must not fail
			// the upload.
			s.logger.Warn("failed to record upload in catalog",
				"owner", req.Owner, "fingerprint", fp, "error", err)
		}
	}

	return &UploadResult{
		URL:         url,
		Fingerprint: fp,
		ObjectKey:   objectKey,
		MimeType:    mimeType,
		SizeBytes:   int64(len(req.Data)),
		Reused:      exists,
	}, nil
}

// Resolve searches for the requested content through the fixed tier
// order: owner-scoped key, cross-owner index scan, public key. Tier
// fallback happens only on a clean miss; a backend I/O error aborts the
// chain.
func (s *service) Resolve(ctx context.Context, requestedName, ownerHint string) (*ResolvedImage, error) {
	fp, ext, err := ParseName(requestedName)
	if err != nil {
		return nil, err
	}

	// Tier 1: owner-scoped read, when an owner is known.
	if ownerHint != "" {
		objectKey, err := s.keys.OwnerKey(ownerHint, fp, ext)
		if err != nil {
			// A malformed hint guides nothing; fall through to the
			// remaining tiers rather than failing the request.
			s.logger.Debug("skipping owner tier for unusable hint", "hint", ownerHint, "error", err)
		} else {
			img, err := s.tryRead(ctx, objectKey, ext)
			if err == nil {
				return img, nil
			}
			if !errors.Is(err, ErrObjectNotFound) {
				return nil, err
			}
		}
	}

	// Tier 2: scan the index across all owners. There should be at most
	// one live entry per fingerprint, but the scan does not assume it.
	if s.sharedLookup {
		for _, entry := range s.index.FindByFingerprint(fp) {
			img, err := s.tryRead(ctx, entry.ObjectKey, ext)
			if err == nil {
				return img, nil
			}
			if !errors.Is(err, ErrObjectNotFound) {
				return nil, err
			}
		}
	}

	// Tier 3: the public namespace.
	publicKey, err := s.keys.PublicKey(fp, ext)
	if err != nil {
		return nil, err
	}
	img, err := s.tryRead(ctx, publicKey, ext)
	if err == nil {
		return img, nil
	}
	if !errors.Is(err, ErrObjectNotFound) {
		return nil, err
	}

	return nil, ErrObjectNotFound
}

// tryRead attempts a read at objectKey and, on a hit, verifies the
// content type implied by the reference extension is a serveable image.
func (s *service) tryRead(ctx context.Context, objectKey, ext string) (*ResolvedImage, error) {
	body, err := s.store.Download(ctx, objectKey)
	if err != nil {
		return nil, err
	}

	contentType := ContentTypeForExt(ext)
	if !AllowedImageType(contentType) {
		body.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	return &ResolvedImage{
		Body:        body,
		ContentType: contentType,
		ObjectKey:   objectKey,
	}, nil
}

// ListUploads returns the catalog records for an owner.
func (s *service) ListUploads(ctx context.Context, owner string) ([]*UploadRecord, error) {
	if s.catalog == nil {
		return nil, nil
	}
	return s.catalog.ListUploads(ctx, owner)
}

// declaredOrSniffedType resolves the content type to validate and store.
// The declared type wins when present; otherwise the payload is sniffed.
func declaredOrSniffedType(declared string, data []byte) string {
	mimeType := strings.TrimSpace(declared)
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = strings.TrimSpace(mimeType[:i])
		}
	}
	return strings.ToLower(mimeType)
}
