package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-textgen/pkg/watch"
)

func startWatcher(t *testing.T, dirs []string, opts ...watch.Option) <-chan []string {
	t.Helper()

	triggered := make(chan []string, 8)
	w, err := watch.New(dirs, func(_ context.Context, changed []string) error {
		triggered <- changed
		return nil
	}, append([]watch.Option{watch.WithDebounce(50 * time.Millisecond)}, opts...)...)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("run: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop after cancel")
		}
	})
	return triggered
}

func waitTrigger(t *testing.T, triggered <-chan []string) []string {
	t.Helper()
	select {
	case changed := <-triggered:
		return changed
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for trigger")
		return nil
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcher_TriggersOnChange(t *testing.T) {
	dir := t.TempDir()
	triggered := startWatcher(t, []string{dir})

	path := filepath.Join(dir, "page.jj2")
	writeFile(t, path, "{{ name }}")

	changed := waitTrigger(t, triggered)
	if diff := cmp.Diff([]string{path}, changed); diff != "" {
		t.Fatalf("changed mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	triggered := startWatcher(t, []string{dir}, watch.WithDebounce(300*time.Millisecond))

	a := filepath.Join(dir, "a.jj2")
	b := filepath.Join(dir, "b.yml")
	writeFile(t, a, "a")
	writeFile(t, b, "b")
	writeFile(t, a, "a2")

	changed := waitTrigger(t, triggered)
	if diff := cmp.Diff([]string{a, b}, changed); diff != "" {
		t.Fatalf("changed mismatch (-want +got):\n%s", diff)
	}

	select {
	case extra := <-triggered:
		t.Fatalf("unexpected second trigger: %v", extra)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_IgnoresPatternsAndPaths(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "README.md")
	triggered := startWatcher(t, []string{dir}, watch.WithIgnorePaths(output), watch.WithIgnore("*.bak"))

	writeFile(t, filepath.Join(dir, "page.jj2.swp"), "x")
	writeFile(t, filepath.Join(dir, "page.bak"), "x")
	writeFile(t, output, "generated")
	real := filepath.Join(dir, "page.jj2")
	writeFile(t, real, "x")

	changed := waitTrigger(t, triggered)
	if diff := cmp.Diff([]string{real}, changed); diff != "" {
		t.Fatalf("changed mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcher_NewSubdirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	triggered := startWatcher(t, []string{dir})

	sub := filepath.Join(dir, "partials")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	waitTrigger(t, triggered)

	nested := filepath.Join(sub, "header.jj2")
	writeFile(t, nested, "header")
	changed := waitTrigger(t, triggered)
	if diff := cmp.Diff([]string{nested}, changed); diff != "" {
		t.Fatalf("changed mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcher_WatchesSingleFiles(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, ".textgen.yml")
	writeFile(t, project, "targets: []\n")

	triggered := startWatcher(t, nil, watch.WithFiles(project))

	writeFile(t, filepath.Join(dir, "unrelated.txt"), "x")
	writeFile(t, project, "targets:\n  - a: b\n")

	changed := waitTrigger(t, triggered)
	if diff := cmp.Diff([]string{project}, changed); diff != "" {
		t.Fatalf("changed mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_SkipsMissingDirs(t *testing.T) {
	dir := t.TempDir()
	w, err := watch.New([]string{filepath.Join(dir, "missing"), dir}, func(context.Context, []string) error { return nil })
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer w.Close()

	abs, _ := filepath.Abs(dir)
	if diff := cmp.Diff([]string{abs}, w.Roots()); diff != "" {
		t.Fatalf("roots mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_RequiresTrigger(t *testing.T) {
	if _, err := watch.New(nil, nil); err == nil {
		t.Fatal("expected error without trigger")
	}
}
