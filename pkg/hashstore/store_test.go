package hashstore_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-textgen/pkg/hashstore"
)

func TestStore_IsChangedRecordsThenSettles(t *testing.T) {
	store := hashstore.New()

	if !store.IsChanged("out/a.txt", []byte("hello a"), "templates/t1.jj2") {
		t.Fatal("first call should report a change")
	}
	if store.IsChanged("out/a.txt", []byte("hello a"), "templates/t1.jj2") {
		t.Fatal("second identical call should not report a change")
	}

	entry, ok := store.Entry("out/a.txt")
	if !ok {
		t.Fatal("expected entry to be recorded")
	}
	want := hashstore.Entry{
		Output:    "out/a.txt",
		Hash:      hashstore.Digest([]byte("hello a")),
		Signature: "templates/t1.jj2",
	}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ContentChangeIsDetected(t *testing.T) {
	store := hashstore.New()
	store.IsChanged("o", []byte("v1"), "t")

	if !store.IsChanged("o", []byte("v2"), "t") {
		t.Fatal("new content should report a change")
	}
	entry, _ := store.Entry("o")
	if entry.Hash != hashstore.Digest([]byte("v2")) {
		t.Fatalf("entry hash not replaced: %s", entry.Hash)
	}
}

func TestStore_SignatureChangeIsDetected(t *testing.T) {
	store := hashstore.New()
	store.IsChanged("o", []byte("same bytes"), "t1")

	if !store.IsChanged("o", []byte("same bytes"), "t2") {
		t.Fatal("a different template producing identical bytes should report a change")
	}
	entry, _ := store.Entry("o")
	if entry.Signature != "t2" {
		t.Fatalf("signature = %q, want t2", entry.Signature)
	}
}

func TestStore_UnchangedCallDoesNotMutate(t *testing.T) {
	store := hashstore.New()
	store.IsChanged("o", []byte("x"), "t")
	before, _ := store.Entry("o")

	store.IsChanged("o", []byte("x"), "t")
	after, _ := store.Entry("o")

	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("entry mutated on unchanged call (-before +after):\n%s", diff)
	}
	if store.Len() != 1 {
		t.Fatalf("len = %d, want 1", store.Len())
	}
}

func TestStore_NormalisesOutputPaths(t *testing.T) {
	store := hashstore.New()
	store.IsChanged("out//a.txt", []byte("x"), "t")

	if store.IsChanged("out/./a.txt", []byte("x"), "t") {
		t.Fatal("equivalent paths should share one entry")
	}
}

func TestStore_Forget(t *testing.T) {
	store := hashstore.New()
	store.IsChanged("o", []byte("x"), "t")
	store.Forget("o")

	if !store.IsChanged("o", []byte("x"), "t") {
		t.Fatal("forgotten output should report a change")
	}
}

func TestStore_ConcurrentCallersSeeOneChange(t *testing.T) {
	store := hashstore.New()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.IsChanged("shared", []byte("payload"), "t") {
				mu.Lock()
				changed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if changed != 1 {
		t.Fatalf("changed = %d, want exactly 1", changed)
	}
}

func TestDigest_Deterministic(t *testing.T) {
	a := hashstore.Digest([]byte("content"))
	b := hashstore.Digest([]byte("content"))
	if a != b {
		t.Fatalf("digest not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(a))
	}
	if a == hashstore.Digest([]byte("content ")) {
		t.Fatal("different content produced the same digest")
	}
}

func TestStore_FileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", hashstore.DefaultFileName)

	first := hashstore.New(hashstore.WithBackend(hashstore.NewFileBackend(path)))
	if err := first.Load(ctx); err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	first.IsChanged("out/a", []byte("a"), "t/a")
	first.IsChanged("out/b", []byte("b"), "t/b")
	if err := first.Persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}

	second := hashstore.New(hashstore.WithBackend(hashstore.NewFileBackend(path)))
	if err := second.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff([]string{"out/a", "out/b"}, second.Outputs()); diff != "" {
		t.Fatalf("outputs mismatch (-want +got):\n%s", diff)
	}
	if second.IsChanged("out/a", []byte("a"), "t/a") {
		t.Fatal("reloaded store should remember out/a")
	}
	if !second.IsChanged("out/b", []byte("b2"), "t/b") {
		t.Fatal("reloaded store should detect new content for out/b")
	}
}

func TestFileBackend_EmptyAndCorruptFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.hashes")
	if err := os.WriteFile(empty, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err := hashstore.NewFileBackend(empty).Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}

	corrupt := filepath.Join(dir, "corrupt.hashes")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := hashstore.NewFileBackend(corrupt).Load(ctx); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestStore_WithoutBackendIsInMemory(t *testing.T) {
	store := hashstore.New()
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.Persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
