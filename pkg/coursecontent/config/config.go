// Package config assembles a coursecontent.Service from declarative
// configuration: programmatic options, environment variables, or both.
package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnhub/course-content/pkg/coursecontent"
	fsstorage "github.com/learnhub/course-content/pkg/coursecontent/storage/fs"
	memorystorage "github.com/learnhub/course-content/pkg/coursecontent/storage/memory"
	s3storage "github.com/learnhub/course-content/pkg/coursecontent/storage/s3"
	"github.com/learnhub/course-content/pkg/coursecontent/store/dynamo"
	"github.com/learnhub/course-content/pkg/coursecontent/store/memory"
	storepg "github.com/learnhub/course-content/pkg/coursecontent/store/postgres"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top
// of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		DBSchema:     "coursecontent",
		LocalStorage: StorageTargetConfig{Type: "memory", Config: map[string]interface{}{}},
		RemoteStorage: StorageTargetConfig{
			Type:   "memory",
			Config: map[string]interface{}{},
		},
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the course-content
// service.
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Row store configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres", "dynamo"
	DBSchema     string // Postgres schema to use
	Dynamo       dynamo.Config

	// Storage targets. Local serves StorageTypeLocal materials, Remote
	// serves StorageTypeRemote ones.
	LocalStorage  StorageTargetConfig
	RemoteStorage StorageTargetConfig

	EnableEventLogging bool
}

// StorageTargetConfig describes one of the two storage targets.
type StorageTargetConfig struct {
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using postgres")
		}
	case "dynamo":
		if c.Dynamo.Table == "" {
			return errors.New("table name is required when using dynamo")
		}
	default:
		return errors.New("database_type must be 'memory', 'postgres' or 'dynamo'")
	}

	for _, target := range []StorageTargetConfig{c.LocalStorage, c.RemoteStorage} {
		switch target.Type {
		case "memory", "fs", "s3":
		default:
			return fmt.Errorf("unsupported storage target type: %s", target.Type)
		}
	}
	return nil
}

// BuildService creates a Service instance from the server configuration.
func (c *ServerConfig) BuildService(ctx context.Context) (coursecontent.Service, error) {
	store, err := c.buildStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build store: %w", err)
	}

	local, err := c.buildStorageTarget(c.LocalStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to build local storage target: %w", err)
	}
	remote, err := c.buildStorageTarget(c.RemoteStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to build remote storage target: %w", err)
	}

	options := []coursecontent.Option{
		coursecontent.WithRepository(coursecontent.NewRepository(store)),
		coursecontent.WithStorageManager(coursecontent.NewStorageManager(local, remote, nil)),
	}
	if c.EnableEventLogging {
		options = append(options, coursecontent.WithEventSink(coursecontent.NewNoopEventSink()))
	}

	return coursecontent.New(options...)
}

// buildStore creates a Store based on the configuration.
func (c *ServerConfig) buildStore(ctx context.Context) (coursecontent.Store, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
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
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return storepg.NewWithPool(pool), nil
	case "dynamo":
		return dynamo.New(ctx, c.Dynamo)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildStorageTarget creates a BlobStore for one storage target.
func (c *ServerConfig) buildStorageTarget(target StorageTargetConfig) (coursecontent.BlobStore, error) {
	switch target.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		fsConfig := fsstorage.Config{
			BaseDir: getString(target.Config, "base_dir", "./data/storage"),
		}
		return fsstorage.New(fsConfig)

	case "s3":
		s3Config := s3storage.Config{
			Region:                 getString(target.Config, "region", "us-east-1"),
			Bucket:                 getString(target.Config, "bucket", ""),
			AccessKeyID:            getString(target.Config, "access_key_id", ""),
			SecretAccessKey:        getString(target.Config, "secret_access_key", ""),
			Endpoint:               getString(target.Config, "endpoint", ""),
			UsePathStyle:           getBool(target.Config, "use_path_style", false),
			CreateBucketIfNotExist: getBool(target.Config, "create_bucket_if_not_exist", false),
		}
		return s3storage.New(s3Config)

	default:
		return nil, fmt.Errorf("unsupported storage target type: %s", target.Type)
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
