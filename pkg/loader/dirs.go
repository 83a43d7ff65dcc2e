package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// DefaultTemplateDirName is the conventional per-project template
	// directory. It is optional.
	DefaultTemplateDirName = ".textgen.td"
	// DefaultConfigurationDirName is the conventional per-project data
	// directory. It is optional.
	DefaultConfigurationDirName = ".textgen.cd"
)

// Tolerated decides whether a missing directory may be silently skipped.
type Tolerated func(dir string) bool

// DefaultTolerated allows the two conventional default directories to be
// absent. Any other directory is required.
func DefaultTolerated(dir string) bool {
	switch filepath.Base(filepath.Clean(dir)) {
	case DefaultTemplateDirName, DefaultConfigurationDirName:
		return true
	default:
		return false
	}
}

// VerifyDirectories fails with ErrDirectoryNotFound for the first directory
// that does not exist and is not tolerated. A nil predicate tolerates
// nothing.
func VerifyDirectories(dirs []string, tolerated Tolerated) error {
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			continue
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if tolerated != nil && tolerated(dir) {
			continue
		}
		abs, absErr := filepath.Abs(dir)
		if absErr != nil {
			abs = dir
		}
		return &NotFoundError{Kind: ErrDirectoryNotFound, Ref: abs}
	}
	return nil
}

// ExistingDirs drops directories that do not exist, such as tolerated
// defaults that were never created.
func ExistingDirs(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			out = append(out, dir)
		}
	}
	return out
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
