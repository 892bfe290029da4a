package config_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/imagestore/pkg/imagestore"
	"github.com/caseflow/imagestore/pkg/imagestore/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.Defaults()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.CatalogType)
	assert.Equal(t, "memory", cfg.StorageBackend.Type)
	assert.True(t, cfg.SharedLookup)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.ServerConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *config.ServerConfig) {},
		},
		{
			name:    "missing port",
			mutate:  func(c *config.ServerConfig) { c.Port = "" },
			wantErr: "port is required",
		},
		{
			name:    "missing api base url",
			mutate:  func(c *config.ServerConfig) { c.APIBaseURL = "" },
			wantErr: "api_base_url is required",
		},
		{
			name:    "unknown catalog type",
			mutate:  func(c *config.ServerConfig) { c.CatalogType = "dynamo" },
			wantErr: "catalog_type must be 'memory' or 'postgres'",
		},
		{
			name:    "postgres catalog without database url",
			mutate:  func(c *config.ServerConfig) { c.CatalogType = "postgres" },
			wantErr: "database_url is required when using postgres",
		},
		{
			name:    "unknown storage backend",
			mutate:  func(c *config.ServerConfig) { c.StorageBackend.Type = "tape" },
			wantErr: "unsupported storage backend type: tape",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestBuildServiceMemory(t *testing.T) {
	cfg := config.Defaults()

	svc, err := cfg.BuildService(nil)
	require.NoError(t, err)
	require.NotNil(t, svc)

	// The assembled service is fully usable end to end.
	data := append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 64)...)
	result, err := svc.Upload(context.Background(), imagestore.UploadRequest{
		Owner:        "alice",
		FileName:     "photo.jpg",
		DeclaredType: "image/jpeg",
		Data:         data,
	})
	require.NoError(t, err)
	assert.False(t, result.Reused)

	img, err := svc.Resolve(context.Background(), result.Fingerprint.String()+".jpg", "alice")
	require.NoError(t, err)
	img.Body.Close()
}

func TestBuildServiceFS(t *testing.T) {
	cfg := config.Defaults()
	cfg.StorageBackend = config.StorageBackendConfig{
		Type:   "fs",
		Config: map[string]interface{}{"base_dir": t.TempDir()},
	}

	svc, err := cfg.BuildService(nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestPingPostgres(t *testing.T) {
	t.Run("empty database url", func(t *testing.T) {
		err := config.PingPostgres("", "imagestore")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database_url is required")
	})

	t.Run("unparseable database url", func(t *testing.T) {
		err := config.PingPostgres("://not-a-url", "imagestore")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse DATABASE_URL")
	})
}

func TestBuildServiceUnknownBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.StorageBackend.Type = "tape"

	_, err := cfg.BuildService(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage backend type")
}
