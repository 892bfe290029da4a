// Package imagestore provides a content-addressed image store with
// upload deduplication and multi-tier lookup.
//
// Uploaded images are identified by the SHA-256 fingerprint of their raw
// bytes. Repeated uploads of identical content by the same owner are
// detected first through a process-local dedup index and then through an
// existence check against the durable storage backend, so at most one
// durable write happens per distinct (owner, content) pair over the life
// of the backend. Reads resolve through a fixed fallback chain: the
// owner-scoped namespace, the cross-owner dedup index, then the public
// namespace.
//
// The package follows a service-based architecture: create a Service with
// New() and functional options, then use the Service methods for upload
// and lookup operations. Storage backends implement the BlobStore
// interface; implementations for memory, filesystem, and S3-compatible
// storage live under storage/.
package imagestore
