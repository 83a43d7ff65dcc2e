// Package fsutil holds the small filesystem helpers the render engine uses to
// write outputs.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileMode is used for newly created outputs before permissions are
// copied from their template.
const DefaultFileMode os.FileMode = 0o644

// WriteFile replaces path with data, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("fsutil: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("fsutil: create dir %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, DefaultFileMode); err != nil {
		return fmt.Errorf("fsutil: write %q: %w", path, err)
	}
	return nil
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CopyPermissions applies the permission bits of src to dst. An empty src
// (inline templates have no file) is a no-op.
func CopyPermissions(src, dst string) error {
	if src == "" {
		return nil
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("fsutil: stat %q: %w", src, err)
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("fsutil: chmod %q: %w", dst, err)
	}
	return nil
}

// PermissionFunc matches CopyPermissions so callers can inject a stub.
type PermissionFunc func(src, dst string) error
