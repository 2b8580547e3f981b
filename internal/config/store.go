package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a key has no stored value
var ErrNotFound = errors.New("blob not found")

// BlobStore persists small named documents such as settings snapshots and
// filter presets
type BlobStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
	Close() error
}

// OpenStore opens the blob store selected by cfg
func OpenStore(cfg StoreConfig) (BlobStore, error) {
	path := cfg.Path
	if path == "" {
		dir, err := EnsureConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve store path: %w", err)
		}
		path = filepath.Join(dir, defaultStoreFile(cfg.Kind))
	}

	switch strings.ToLower(cfg.Kind) {
	case StoreJSON, "":
		return OpenJSONStore(path)
	case StoreSQLite:
		return OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}

func defaultStoreFile(kind string) string {
	if kind == StoreSQLite {
		return appName + ".db"
	}
	return "triage_store.json"
}
