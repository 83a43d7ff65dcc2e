package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/goliatone/go-textgen/pkg/config"
	"github.com/goliatone/go-textgen/pkg/hashstore"
	"github.com/goliatone/go-textgen/pkg/hashstore/badgerstore"
	"github.com/goliatone/go-textgen/pkg/hashstore/sqlitestore"
)

// Cache backend names accepted by --cache-backend and cache_backend.
const (
	backendFile   = "file"
	backendSQLite = "sqlite"
	backendBadger = "badger"
)

// openBackend opens the hash store medium named by kind. A path named after
// the default cache file, in any directory, gets a backend-specific suffix for sqlite and badger so switching
// backends never reads another backend's files.
func openBackend(kind, path string, logger *slog.Logger) (hashstore.Backend, error) {
	if kind == "" {
		kind = config.DefaultCacheBackend
	}
	if path == "" {
		path = config.DefaultCacheFile
	}

	switch kind {
	case backendFile:
		return hashstore.NewFileBackend(path), nil
	case backendSQLite:
		if isDefaultCacheFile(path) {
			path += ".db"
		}
		backend, err := sqlitestore.Open(path)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case backendBadger:
		if isDefaultCacheFile(path) {
			path += ".d"
		}
		var badgerLog *slog.Logger
		if logger != nil && logger.Enabled(context.Background(), slog.LevelDebug) {
			badgerLog = logger
		}
		backend, err := badgerstore.Open(badgerstore.Config{Path: path, SyncWrites: true, Logger: badgerLog})
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want %s, %s or %s)", kind, backendFile, backendSQLite, backendBadger)
	}
}

func isDefaultCacheFile(path string) bool {
	return filepath.Base(path) == config.DefaultCacheFile
}
