package main

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/caseflow/imagestore/pkg/imagestore/config"
)

// EnvConfig is the process environment surface of the server. It keeps
// environment-specific logic within the executable instead of the
// library.
type EnvConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	APIBaseURL  string `env:"API_BASE_URL" env-default:"/api/v1/files"`

	JWTSecret string `env:"JWT_SECRET" env-default:"dev-secret"`

	CatalogType string `env:"CATALOG_TYPE" env-default:"memory"`
	DatabaseURL string `env:"DATABASE_URL" env-default:""`
	DBSchema    string `env:"CATALOG_DB_SCHEMA" env-default:"imagestore"`

	IndexCapacity int  `env:"DEDUP_INDEX_CAPACITY" env-default:"4096"`
	SharedLookup  bool `env:"LOOKUP_SHARED" env-default:"true"`

	StorageType string `env:"STORAGE_TYPE" env-default:"memory"`
	FSBaseDir   string `env:"FS_BASE_DIR" env-default:"./data/storage"`

	S3 S3Config
}

// S3Config configures the s3 storage backend
type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	Bucket          string `env:"AWS_S3_BUCKET" env-default:""`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

// loadServerConfigFromEnv reads the environment and produces a validated
// ServerConfig.
func loadServerConfigFromEnv() (*config.ServerConfig, *EnvConfig, error) {
	var env EnvConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := config.Defaults()
	cfg.Port = env.Port
	cfg.Environment = env.Environment
	cfg.APIBaseURL = env.APIBaseURL
	cfg.CatalogType = env.CatalogType
	cfg.DatabaseURL = env.DatabaseURL
	cfg.DBSchema = env.DBSchema
	cfg.IndexCapacity = env.IndexCapacity
	cfg.SharedLookup = env.SharedLookup
	cfg.StorageBackend = storageBackendConfig(env)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, &env, nil
}

func storageBackendConfig(env EnvConfig) config.StorageBackendConfig {
	switch env.StorageType {
	case "fs":
		return config.StorageBackendConfig{
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir": env.FSBaseDir,
			},
		}
	case "s3":
		return config.StorageBackendConfig{
			Type: "s3",
			Config: map[string]interface{}{
				"region":                     env.S3.Region,
				"bucket":                     env.S3.Bucket,
				"access_key_id":              env.S3.AccessKeyID,
				"secret_access_key":          env.S3.SecretAccessKey,
				"endpoint":                   env.S3.Endpoint,
				"use_path_style":             env.S3.UsePathStyle,
				"create_bucket_if_not_exist": env.S3.CreateBucket,
			},
		}
	default:
		return config.StorageBackendConfig{
			Type:   "memory",
			Config: map[string]interface{}{},
		}
	}
}
