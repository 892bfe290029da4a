package imagestore

import (
	"fmt"
	"strings"
)

// ParseName splits a requested reference name "{fingerprint}.{ext}" on
// the final dot. Names without an extension or with a malformed
// fingerprint fail with ErrInvalidReference.
func ParseName(name string) (Fingerprint, string, error) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", fmt.Errorf("%w: missing extension in %q", ErrInvalidReference, name)
	}
	fp, err := ParseFingerprint(name[:idx])
	if err != nil {
		return "", "", err
	}
	ext, err := parseExt(name[idx+1:])
	if err != nil {
		return "", "", err
	}
	return fp, ext, nil
}

// ExtFromFileName extracts the extension of a declared file name,
// lower-cased and validated.
func ExtFromFileName(fileName string) (string, error) {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 || idx == len(fileName)-1 {
		return "", fmt.Errorf("%w: file name %q has no extension", ErrInvalidReference, fileName)
	}
	return parseExt(fileName[idx+1:])
}

// parseExt lower-cases an extension and rejects anything that is not a
// short run of letters and digits. Extensions become part of storage keys
// and URLs, so separators, traversal sequences, and control characters
// are rejected outright rather than replaced.
func parseExt(ext string) (string, error) {
	ext = strings.ToLower(ext)
	if ext == "" || len(ext) > 8 {
		return "", fmt.Errorf("%w: bad extension %q", ErrInvalidReference, ext)
	}
	for _, c := range ext {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return "", fmt.Errorf("%w: bad extension %q", ErrInvalidReference, ext)
		}
	}
	return ext, nil
}
