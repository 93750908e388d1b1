package store

import (
	"fmt"
	"strings"
)

// Config holds configuration for creating a backend
type Config struct {
	Type string // "file", "memory", "redis" or "mysql"
	Path string // JSON document path for the file backend

	MySQLDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New creates a backend based on the configuration (factory pattern)
// The returned name is the normalized type, used as a metrics label
func New(cfg Config) (Store, string, error) {
	storeType := strings.ToLower(strings.TrimSpace(cfg.Type))

	switch storeType {
	case "file", "":
		s, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file store: %w", err)
		}
		return s, "file", nil

	case "memory":
		return NewMemoryStore(), "memory", nil

	case "redis":
		s, err := NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Redis store: %w", err)
		}
		return s, "redis", nil

	case "mysql":
		s, err := NewMySQLStore(cfg.MySQLDSN)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create MySQL store: %w", err)
		}
		return s, "mysql", nil

	default:
		return nil, "", fmt.Errorf("unknown datastore type: %s (supported: 'file', 'memory', 'redis', 'mysql')", cfg.Type)
	}
}
