package config

import (
	"errors"

	"github.com/learnhub/course-content/pkg/coursecontent/store/dynamo"
)

// WithPort sets the HTTP listen port.
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return errors.New("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the runtime environment name.
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		c.Environment = env
		return nil
	}
}

// WithMemoryDatabase selects the in-memory row store.
func WithMemoryDatabase() Option {
	return func(c *ServerConfig) error {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}
}

// WithPostgres selects the Postgres row store.
func WithPostgres(databaseURL, schema string) Option {
	return func(c *ServerConfig) error {
		if databaseURL == "" {
			return errors.New("database URL cannot be empty")
		}
		c.DatabaseType = "postgres"
		c.DatabaseURL = databaseURL
		if schema != "" {
			c.DBSchema = schema
		}
		return nil
	}
}

// WithDynamo selects the DynamoDB row store.
func WithDynamo(cfg dynamo.Config) Option {
	return func(c *ServerConfig) error {
		if cfg.Table == "" {
			return errors.New("dynamo table cannot be empty")
		}
		c.DatabaseType = "dynamo"
		c.Dynamo = cfg
		return nil
	}
}

// WithLocalStorage sets the local storage target.
func WithLocalStorage(target StorageTargetConfig) Option {
	return func(c *ServerConfig) error {
		c.LocalStorage = target
		return nil
	}
}

// WithRemoteStorage sets the remote storage target.
func WithRemoteStorage(target StorageTargetConfig) Option {
	return func(c *ServerConfig) error {
		c.RemoteStorage = target
		return nil
	}
}

// WithEventLogging toggles the event sink.
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}
