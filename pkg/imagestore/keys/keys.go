// Package keys builds the storage keys and external references used by
// the image store. Key construction is a pure, deterministic function of
// its inputs: repeated computation for the same owner, fingerprint, and
// extension always yields the same key.
package keys

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caseflow/imagestore/pkg/imagestore"
)

const (
	// OwnerPrefix is the namespace for owner-scoped objects.
	OwnerPrefix = "uploads"

	// PublicPrefix is the namespace for publicly placed objects.
	PublicPrefix = "public"
)

// Resolver builds storage keys and external view references. It
// implements imagestore.KeyResolver.
type Resolver struct {
	// BaseURL is prepended to generated references,
	// e.g. "/api/v1/files" or "https://api.example.com/api/v1/files".
	BaseURL string
}

// NewResolver creates a Resolver rooted at baseURL.
func NewResolver(baseURL string) *Resolver {
	return &Resolver{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

// OwnerKey builds the owner-scoped storage key
// "uploads/{owner}/{fingerprint}.{ext}".
func (r *Resolver) OwnerKey(owner string, fp imagestore.Fingerprint, ext string) (string, error) {
	if err := checkComponent(owner); err != nil {
		return "", fmt.Errorf("invalid owner: %w", err)
	}
	if err := checkComponent(ext); err != nil {
		return "", fmt.Errorf("invalid extension: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s.%s", OwnerPrefix, owner, fp, ext), nil
}

// PublicKey builds the public storage key "public/{fingerprint}.{ext}".
func (r *Resolver) PublicKey(fp imagestore.Fingerprint, ext string) (string, error) {
	if err := checkComponent(ext); err != nil {
		return "", fmt.Errorf("invalid extension: %w", err)
	}
	return fmt.Sprintf("%s/%s.%s", PublicPrefix, fp, ext), nil
}

// Reference builds the stable, shareable view URL for an uploaded image,
// embedding the owner as a lookup hint.
func (r *Resolver) Reference(fp imagestore.Fingerprint, ext, owner string) string {
	ref := fmt.Sprintf("%s/view/%s.%s", r.BaseURL, fp, ext)
	if owner != "" {
		ref += "?uid=" + url.QueryEscape(owner)
	}
	return ref
}

// checkComponent rejects path components that could escape or corrupt a
// storage key.
func checkComponent(component string) error {
	if component == "" {
		return fmt.Errorf("%w: empty path component", imagestore.ErrInvalidReference)
	}
	if component == "." || component == ".." {
		return fmt.Errorf("%w: unsafe path component %q", imagestore.ErrInvalidReference, component)
	}
	if strings.ContainsAny(component, "/\\?#") {
		return fmt.Errorf("%w: unsafe path component %q", imagestore.ErrInvalidReference, component)
	}
	for _, c := range component {
		if c < 0x20 || c == 0x7f {
			return fmt.Errorf("%w: control character in path component", imagestore.ErrInvalidReference)
		}
	}
	return nil
}
