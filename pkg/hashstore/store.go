package hashstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
)

// Entry is the cached state of one output path.
type Entry struct {
	Output    string `json:"-"`
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
}

// Backend restores and flushes entries keyed by output path.
type Backend interface {
	Load(ctx context.Context) (map[string]Entry, error)
	Persist(ctx context.Context, entries map[string]Entry) error
	Close() error
}

// Option customises a Store.
type Option func(*Store)

// WithBackend sets the durable medium used by Load and Persist. Without a
// backend the store lives for the process only.
func WithBackend(backend Backend) Option {
	return func(s *Store) {
		s.backend = backend
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is the process-wide content-addressed cache. All methods are safe for
// concurrent use; IsChanged performs its read-modify-write under one lock so
// an output never sees two concurrent writers.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	backend Backend
	logger  *slog.Logger
}

// New constructs an empty Store.
func New(options ...Option) *Store {
	s := &Store{
		entries: make(map[string]Entry),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// IsChanged reports whether content differs from what was last recorded for
// output, or whether a different template now produces it. A true result
// records the new digest and signature before returning, so an identical
// second call answers false. A false result leaves the store untouched.
func (s *Store) IsChanged(output string, content []byte, signature string) bool {
	key := normalise(output)
	digest := Digest(content)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[key]
	if ok && current.Hash == digest && current.Signature == signature {
		return false
	}

	s.entries[key] = Entry{Output: key, Hash: digest, Signature: signature}
	s.logger.Debug("hash recorded", "output", key, "hash", digest, "signature", signature, "previous", ok)
	return true
}

// Entry returns the recorded entry for output.
func (s *Store) Entry(output string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[normalise(output)]
	return entry, ok
}

// Forget drops the entry for output so the next IsChanged call reports a
// change. Forced runs use it, and the engine drops the entry of an output it
// failed to write.
func (s *Store) Forget(output string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, normalise(output))
}

// Len reports the number of recorded outputs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Outputs returns the recorded output paths in sorted order.
func (s *Store) Outputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.entries))
	for key := range s.entries {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Load replaces the in-memory entries with the backend contents. It is a
// no-op without a backend.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	loaded, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}

	entries := make(map[string]Entry, len(loaded))
	for output, entry := range loaded {
		key := normalise(output)
		entry.Output = key
		entries[key] = entry
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Debug("hash store loaded", "entries", len(entries))
	return nil
}

// Persist flushes a snapshot of the entries to the backend. It is a no-op
// without a backend.
func (s *Store) Persist(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	snapshot := make(map[string]Entry, len(s.entries))
	for key, entry := range s.entries {
		snapshot[key] = entry
	}
	s.mu.Unlock()

	if err := s.backend.Persist(ctx, snapshot); err != nil {
		return err
	}
	s.logger.Debug("hash store persisted", "entries", len(snapshot))
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

func normalise(output string) string {
	if output == "" {
		return output
	}
	return filepath.Clean(output)
}
