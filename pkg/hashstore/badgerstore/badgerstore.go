// Package badgerstore persists hash store entries in BadgerDB. Keys are
// output paths; values are JSON-encoded {hash, signature} records.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/goliatone/go-textgen/pkg/hashstore"
)

// Config holds configuration for the BadgerDB instance.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal messages. Nil disables them.
	Logger *slog.Logger
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Backend implements hashstore.Backend on top of BadgerDB.
type Backend struct {
	db *badger.DB
}

var _ hashstore.Backend = (*Backend)(nil)

type record struct {
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
}

// Open opens the database described by cfg.
func Open(cfg Config) (*Backend, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badgerstore: path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("badgerstore: create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open database: %w", err)
	}
	return &Backend{db: db}, nil
}

// Load iterates every key.
func (b *Backend) Load(ctx context.Context) (map[string]hashstore.Entry, error) {
	entries := make(map[string]hashstore.Entry)
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			output := string(item.KeyCopy(nil))
			err := item.Value(func(val []byte) error {
				var rec record
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("decode %s: %w", output, err)
				}
				entries[output] = hashstore.Entry{Output: output, Hash: rec.Hash, Signature: rec.Signature}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerstore: load: %w", err)
	}
	return entries, nil
}

// Persist replaces the stored keys with entries through one write batch. Keys
// for outputs absent from entries are deleted.
func (b *Backend) Persist(ctx context.Context, entries map[string]hashstore.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stale, err := b.staleKeys(entries)
	if err != nil {
		return err
	}

	batch := b.db.NewWriteBatch()
	for _, key := range stale {
		if err := batch.Delete(key); err != nil {
			batch.Cancel()
			return fmt.Errorf("badgerstore: delete %s: %w", key, err)
		}
	}
	for output, entry := range entries {
		payload, err := json.Marshal(record{Hash: entry.Hash, Signature: entry.Signature})
		if err != nil {
			batch.Cancel()
			return fmt.Errorf("badgerstore: encode %s: %w", output, err)
		}
		if err := batch.Set([]byte(output), payload); err != nil {
			batch.Cancel()
			return fmt.Errorf("badgerstore: set %s: %w", output, err)
		}
	}
	if err := batch.Flush(); err != nil {
		return fmt.Errorf("badgerstore: flush: %w", err)
	}
	return nil
}

func (b *Backend) staleKeys(entries map[string]hashstore.Entry) ([][]byte, error) {
	var stale [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if _, ok := entries[string(key)]; !ok {
				stale = append(stale, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerstore: scan keys: %w", err)
	}
	return stale, nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}
