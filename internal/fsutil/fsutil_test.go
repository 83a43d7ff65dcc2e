package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile_CreatesParentsAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.txt")

	if err := WriteFile(path, []byte("first version")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("content = %q, want full overwrite", got)
	}
}

func TestWriteFile_RequiresPath(t *testing.T) {
	if err := WriteFile("", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCopyPermissions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "script.sh.jj2")
	dst := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(src, []byte("#!/bin/sh"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	if err := os.Chmod(src, 0o750); err != nil {
		t.Fatalf("chmod src: %v", err)
	}
	if err := os.WriteFile(dst, []byte("#!/bin/sh"), 0o644); err != nil {
		t.Fatalf("write dst: %v", err)
	}

	if err := CopyPermissions(src, dst); err != nil {
		t.Fatalf("copy: %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o750 {
		t.Fatalf("mode = %o, want 750", info.Mode().Perm())
	}
}

func TestCopyPermissions_InlineAndMissing(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out")
	if err := CopyPermissions("", dst); err != nil {
		t.Fatalf("empty src should be a no-op: %v", err)
	}
	if err := CopyPermissions(filepath.Join(t.TempDir(), "absent"), dst); err == nil {
		t.Fatal("expected error for missing src")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if Exists(path) {
		t.Fatal("missing file reported as existing")
	}
	if err := WriteFile(path, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !Exists(path) || !Exists(dir) {
		t.Fatal("existing paths reported as missing")
	}
}
