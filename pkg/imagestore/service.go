package imagestore

import (
	"fmt"
	"log/slog"
)

// service implements the Service interface
type service struct {
	store        BlobStore
	index        DedupIndex
	keys         KeyResolver
	catalog      Catalog
	logger       *slog.Logger
	sharedLookup bool
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithBlobStore sets the durable storage backend for the service
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithDedupIndex sets the process-local dedup index. The index is owned
// by the caller so tests can run multiple isolated service instances.
func WithDedupIndex(index DedupIndex) Option {
	return func(s *service) {
		s.index = index
	}
}

// WithKeyResolver sets the storage key and reference resolver
func WithKeyResolver(keys KeyResolver) Option {
	return func(s *service) {
		s.keys = keys
	}
}

// WithCatalog sets the durable upload record store
func WithCatalog(catalog Catalog) Option {
	return func(s *service) {
		s.catalog = catalog
	}
}

// WithLogger sets the logger used for non-fatal diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithSharedLookup controls the cross-owner index scan during lookup.
// When enabled (the default), a read request whose owner-scoped lookup
// misses may be served from another owner's upload of the same content:
// anyone holding a valid fingerprint can view it. Disable for strict
// per-owner isolation.
func WithSharedLookup(enabled bool) Option {
	return func(s *service) {
		s.sharedLookup = enabled
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		sharedLookup: true,
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.index == nil {
		return nil, fmt.Errorf("dedup index is required")
	}
	if s.keys == nil {
		return nil, fmt.Errorf("key resolver is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}
