package hashstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is the cache file written next to the project file.
const DefaultFileName = ".textgen.hashes"

// FileBackend stores every entry in one JSON document of the form
// {"<output>": {"hash": "...", "signature": "..."}}.
type FileBackend struct {
	path string
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend returns a backend persisting to path.
func NewFileBackend(path string) *FileBackend {
	if strings.TrimSpace(path) == "" {
		path = DefaultFileName
	}
	return &FileBackend{path: filepath.Clean(path)}
}

// Path returns the cache file location.
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads the cache file. A missing file yields an empty set.
func (b *FileBackend) Load(ctx context.Context) (map[string]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf("hashstore: read %s: %w", b.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]Entry{}, nil
	}

	entries := map[string]Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("hashstore: decode %s: %w", b.path, err)
	}
	for output, entry := range entries {
		entry.Output = output
		entries[output] = entry
	}
	return entries, nil
}

// Persist writes the cache file through a temporary sibling and a rename so a
// crash never leaves a truncated document behind.
func (b *FileBackend) Persist(ctx context.Context, entries map[string]Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entries == nil {
		entries = map[string]Entry{}
	}

	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("hashstore: encode entries: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("hashstore: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("hashstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("hashstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("hashstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("hashstore: replace %s: %w", b.path, err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Persist.
func (b *FileBackend) Close() error {
	return nil
}
