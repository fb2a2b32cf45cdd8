package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// eventually polls until the condition holds or the deadline passes.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcherIndexesNewFile(t *testing.T) {
	dir := t.TempDir()
	ix := New(dir)

	w, err := NewWatcher(ix, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "fresh.go")
	if err := os.WriteFile(path, []byte("package fresh\n\nfunc Hello() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !eventually(t, 3*time.Second, func() bool {
		return ix.Stats().Files == 1
	}) {
		t.Fatalf("file was not indexed: stats=%+v", ix.Stats())
	}
	if got := ix.SearchByName("Hello", 5); len(got) != 1 {
		t.Errorf("SearchByName(Hello) = %d results, want 1", len(got))
	}
}

func TestWatcherRemovesDeletedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.go")
	if err := os.WriteFile(path, []byte("package gone\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ix := New(dir)
	if _, err := ix.IndexDirectory(context.Background(), Options{}); err != nil {
		t.Fatal(err)
	}
	if ix.Stats().Files != 1 {
		t.Fatalf("setup: stats=%+v", ix.Stats())
	}

	w, err := NewWatcher(ix, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	if !eventually(t, 3*time.Second, func() bool {
		return ix.Stats().Files == 0
	}) {
		t.Fatalf("deleted file still indexed: stats=%+v", ix.Stats())
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	ix := New(dir)

	w, err := NewWatcher(ix, []string{".go"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Give the debounce window time to elapse.
	time.Sleep(600 * time.Millisecond)
	if ix.Stats().Files != 0 {
		t.Errorf("unexpected indexing of .txt file: stats=%+v", ix.Stats())
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	ix := New(t.TempDir())
	w, err := NewWatcher(ix, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
}
