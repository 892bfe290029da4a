// Package config assembles an imagestore.Service from declarative
// configuration, keeping backend construction out of executables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseflow/imagestore/pkg/imagestore"
	"github.com/caseflow/imagestore/pkg/imagestore/dedupindex"
	"github.com/caseflow/imagestore/pkg/imagestore/keys"
	repomemory "github.com/caseflow/imagestore/pkg/imagestore/repo/memory"
	repopg "github.com/caseflow/imagestore/pkg/imagestore/repo/postgres"
	fsstorage "github.com/caseflow/imagestore/pkg/imagestore/storage/fs"
	memorystorage "github.com/caseflow/imagestore/pkg/imagestore/storage/memory"
	s3storage "github.com/caseflow/imagestore/pkg/imagestore/storage/s3"
)

// ServerConfig represents server configuration for the image store service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// APIBaseURL is the path prefix embedded in generated view
	// references, e.g. "/api/v1/files".
	APIBaseURL string

	// Catalog configuration
	CatalogType string // "memory", "postgres"
	DatabaseURL string
	DBSchema    string // Postgres schema to use (default: imagestore)

	// Storage configuration
	StorageBackend StorageBackendConfig

	// Dedup index options
	IndexCapacity int

	// SharedLookup enables the cross-owner fallback during lookup.
	SharedLookup bool
}

// StorageBackendConfig represents configuration for a storage backend
type StorageBackendConfig struct {
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// Defaults returns a development configuration backed entirely by memory.
func Defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		APIBaseURL:  "/api/v1/files",
		CatalogType: "memory",
		DBSchema:    "imagestore",
		StorageBackend: StorageBackendConfig{
			Type:   "memory",
			Config: map[string]interface{}{},
		},
		IndexCapacity: dedupindex.DefaultCapacity,
		SharedLookup:  true,
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.APIBaseURL == "" {
		return errors.New("api_base_url is required")
	}

	if c.CatalogType != "memory" && c.CatalogType != "postgres" {
		return errors.New("catalog_type must be 'memory' or 'postgres'")
	}

	if c.CatalogType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.StorageBackend.Type {
	case "memory", "fs", "s3":
	default:
		return fmt.Errorf("unsupported storage backend type: %s", c.StorageBackend.Type)
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(logger *slog.Logger) (imagestore.Service, error) {
	store, err := c.buildStorageBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to build storage backend: %w", err)
	}

	catalog, err := c.buildCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	options := []imagestore.Option{
		imagestore.WithBlobStore(store),
		imagestore.WithDedupIndex(dedupindex.New(c.IndexCapacity)),
		imagestore.WithKeyResolver(keys.NewResolver(c.APIBaseURL)),
		imagestore.WithCatalog(catalog),
		imagestore.WithSharedLookup(c.SharedLookup),
	}
	if logger != nil {
		options = append(options, imagestore.WithLogger(logger))
	}

	return imagestore.New(options...)
}

// buildCatalog creates a Catalog based on the configuration
func (c *ServerConfig) buildCatalog() (imagestore.Catalog, error) {
	switch c.CatalogType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		if c.DatabaseURL == "" {
			return nil, errors.New("database_url is required for postgres")
		}
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
		pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported catalog type: %s", c.CatalogType)
	}
}

// PingPostgres verifies connectivity to Postgres and optionally sets
// search_path for the session. It fails if the schema (when provided)
// does not exist.
func PingPostgres(databaseURL, schema string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// buildStorageBackend creates a BlobStore based on the backend configuration
func (c *ServerConfig) buildStorageBackend() (imagestore.BlobStore, error) {
	backend := c.StorageBackend
	switch backend.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		fsConfig := fsstorage.Config{
			BaseDir: getString(backend.Config, "base_dir", "./data/storage"),
		}
		return fsstorage.New(fsConfig)

	case "s3":
		s3Config := s3storage.Config{
			Region:                 getString(backend.Config, "region", "us-east-1"),
			Bucket:                 getString(backend.Config, "bucket", ""),
			AccessKeyID:            getString(backend.Config, "access_key_id", ""),
			SecretAccessKey:        getString(backend.Config, "secret_access_key", ""),
			Endpoint:               getString(backend.Config, "endpoint", ""),
			UsePathStyle:           getBool(backend.Config, "use_path_style", false),
			EnableSSE:              getBool(backend.Config, "enable_sse", false),
			SSEAlgorithm:           getString(backend.Config, "sse_algorithm", "AES256"),
			SSEKMSKeyID:            getString(backend.Config, "sse_kms_key_id", ""),
			CreateBucketIfNotExist: getBool(backend.Config, "create_bucket_if_not_exist", false),
		}
		return s3storage.New(s3Config)

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", backend.Type)
	}
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}
