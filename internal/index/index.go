// Package index maintains the content-addressed codebase index.
//
// The index maps file paths to their extracted chunks and remembers each
// file's content hash, so re-indexing an unchanged tree is a no-op. A
// single writer mutates the maps under the write lock and replaces a
// file's chunk slice wholesale, so concurrent readers always observe a
// complete pre- or post-update snapshot for any file.
package index

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"codepilot/internal/extract"
	"codepilot/internal/logging"
)

// SnapshotStore persists the index across runs. The SQLite implementation
// lives in internal/store; tests use in-memory fakes.
type SnapshotStore interface {
	// Load returns the persisted file-hash map and chunk map.
	Load(ctx context.Context) (map[string]string, map[string][]extract.Chunk, error)

	// ReplaceFile atomically replaces one file's hash and chunks.
	ReplaceFile(ctx context.Context, path, hash string, chunks []extract.Chunk) error

	// DeleteFile removes one file's entry.
	DeleteFile(ctx context.Context, path string) error

	// Clear drops all persisted state.
	Clear(ctx context.Context) error
}

// DefaultExtensions are indexed when the caller supplies none.
var DefaultExtensions = []string{
	".go", ".py", ".pyw", ".pyi", ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx",
	".rs", ".java", ".rb", ".c", ".h", ".cpp", ".hpp", ".cs", ".php", ".sh",
}

// DefaultIgnorePatterns exclude build output, dependencies, and VCS
// metadata. Patterns are substring matches against the full path.
var DefaultIgnorePatterns = []string{
	".git", "node_modules", "vendor", "__pycache__", "dist", "build",
	"target", ".venv", ".idea", ".vscode", ".pilot",
}

// Options configure a directory index run.
type Options struct {
	// Extensions filters indexable files; defaults to DefaultExtensions.
	Extensions []string

	// IgnorePatterns are substring matches against full paths.
	IgnorePatterns []string

	// Force drops entries for files no longer present in the tree.
	Force bool
}

// Result summarizes one directory index run.
type Result struct {
	FilesIndexed   int           `json:"files_indexed"`
	FilesUnchanged int           `json:"files_unchanged"`
	FilesSkipped   int           `json:"files_skipped"`
	FilesRemoved   int           `json:"files_removed"`
	ChunksCreated  int           `json:"chunks_created"`
	Duration       time.Duration `json:"duration"`
}

// Stats aggregate the current snapshot.
type Stats struct {
	Files       int       `json:"files"`
	Chunks      int       `json:"chunks"`
	LastIndexed time.Time `json:"last_indexed"`
}

// Index owns all chunks for a directory tree.
type Index struct {
	mu        sync.RWMutex
	root      string
	extractor *extract.Extractor
	store     SnapshotStore

	chunks      map[string][]extract.Chunk
	hashes      map[string]string
	lastIndexed time.Time
}

// Option customizes an Index.
type Option func(*Index)

// WithStore attaches a snapshot store, persisted after directory runs.
func WithStore(s SnapshotStore) Option {
	return func(ix *Index) { ix.store = s }
}

// New creates an empty index rooted at the given directory.
func New(root string, opts ...Option) *Index {
	ix := &Index{
		root:      root,
		extractor: extract.NewExtractor(),
		chunks:    make(map[string][]extract.Chunk),
		hashes:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Root returns the indexed directory root.
func (ix *Index) Root() string { return ix.root }

// Load restores the snapshot from the attached store. Missing store is
// not an error; the index simply starts empty.
func (ix *Index) Load(ctx context.Context) error {
	if ix.store == nil {
		return nil
	}
	hashes, chunks, err := ix.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.hashes = hashes
	ix.chunks = chunks
	logging.Index("snapshot loaded: %d files, %d chunks", len(hashes), ix.totalChunksLocked())
	return nil
}

// IndexFile indexes a single file and returns its chunk count. When the
// file's content hash matches the stored hash, the existing count is
// returned without re-parsing.
func (ix *Index) IndexFile(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	return ix.indexContent(ctx, path, content)
}

func (ix *Index) indexContent(ctx context.Context, path string, content []byte) (int, error) {
	hash := extract.HashBytes(content)

	ix.mu.RLock()
	stored, known := ix.hashes[path]
	existing := len(ix.chunks[path])
	ix.mu.RUnlock()

	if known && stored == hash {
		logging.IndexDebug("unchanged, skipping re-parse: %s", path)
		return existing, nil
	}

	chunks := ix.extractor.Extract(path, content)

	ix.mu.Lock()
	ix.chunks[path] = chunks
	ix.hashes[path] = hash
	ix.lastIndexed = time.Now()
	ix.mu.Unlock()

	if ix.store != nil {
		if err := ix.store.ReplaceFile(ctx, path, hash, chunks); err != nil {
			logging.IndexWarn("persist failed for %s: %v", path, err)
		}
	}
	logging.IndexDebug("indexed %s: %d chunks", path, len(chunks))
	return len(chunks), nil
}

// Remove drops a file's chunks and hash from the index.
func (ix *Index) Remove(ctx context.Context, path string) {
	ix.mu.Lock()
	delete(ix.chunks, path)
	delete(ix.hashes, path)
	ix.mu.Unlock()

	if ix.store != nil {
		if err := ix.store.DeleteFile(ctx, path); err != nil {
			logging.IndexWarn("remove from snapshot failed for %s: %v", path, err)
		}
	}
}

// IndexDirectory walks the tree rooted at the index root and indexes
// every matching file. Extraction and read errors are counted as skipped
// and never abort the walk.
func (ix *Index) IndexDirectory(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	ignores := opts.IgnorePatterns
	if len(ignores) == 0 {
		ignores = DefaultIgnorePatterns
	}
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = true
	}

	res := &Result{}
	seen := make(map[string]bool)

	walkErr := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			res.FilesSkipped++
			return nil
		}
		if isIgnored(path, ignores) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !extSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			logging.IndexWarn("skipping unreadable file %s: %v", path, readErr)
			res.FilesSkipped++
			return nil
		}
		seen[path] = true

		hash := extract.HashBytes(content)
		ix.mu.RLock()
		unchanged := ix.hashes[path] == hash
		ix.mu.RUnlock()
		if unchanged {
			res.FilesUnchanged++
			return nil
		}

		count, idxErr := ix.indexContent(ctx, path, content)
		if idxErr != nil {
			res.FilesSkipped++
			return nil
		}
		res.FilesIndexed++
		res.ChunksCreated += count
		return nil
	})
	if walkErr != nil {
		return res, fmt.Errorf("walk %s: %w", ix.root, walkErr)
	}

	if opts.Force {
		res.FilesRemoved = ix.removeMissing(ctx, seen)
	}

	ix.mu.Lock()
	ix.lastIndexed = time.Now()
	ix.mu.Unlock()

	res.Duration = time.Since(start)
	logging.Index("directory indexed: %d new, %d unchanged, %d skipped, %d removed in %v",
		res.FilesIndexed, res.FilesUnchanged, res.FilesSkipped, res.FilesRemoved, res.Duration)
	return res, nil
}

// removeMissing drops entries for files that disappeared from the tree.
func (ix *Index) removeMissing(ctx context.Context, seen map[string]bool) int {
	ix.mu.RLock()
	var missing []string
	for path := range ix.hashes {
		if !seen[path] {
			missing = append(missing, path)
		}
	}
	ix.mu.RUnlock()

	for _, path := range missing {
		ix.Remove(ctx, path)
	}
	return len(missing)
}

// Clear resets all in-memory and persisted state.
func (ix *Index) Clear(ctx context.Context) error {
	ix.mu.Lock()
	ix.chunks = make(map[string][]extract.Chunk)
	ix.hashes = make(map[string]string)
	ix.lastIndexed = time.Time{}
	ix.mu.Unlock()

	if ix.store != nil {
		if err := ix.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}
	logging.Index("index cleared")
	return nil
}

// Stats returns aggregate counters for the current snapshot.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return Stats{
		Files:       len(ix.hashes),
		Chunks:      ix.totalChunksLocked(),
		LastIndexed: ix.lastIndexed,
	}
}

// Files returns the indexed paths in sorted order.
func (ix *Index) Files() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	paths := make([]string, 0, len(ix.hashes))
	for path := range ix.hashes {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (ix *Index) totalChunksLocked() int {
	total := 0
	for _, cs := range ix.chunks {
		total += len(cs)
	}
	return total
}

func isIgnored(path string, patterns []string) bool {
	for _, pat := range patterns {
		if pat != "" && strings.Contains(path, pat) {
			return true
		}
	}
	return false
}
