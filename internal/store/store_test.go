package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"codepilot/internal/extract"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleChunks() []extract.Chunk {
	return []extract.Chunk{
		{
			Path:      "pkg/a.go",
			Name:      "Widget",
			Kind:      extract.KindClass,
			StartLine: 3,
			EndLine:   8,
			Content:   "type Widget struct {\n\tID int\n}",
			Doc:       "Widget is a thing.",
			Imports:   []string{"fmt", "strings"},
			Hash:      extract.HashText("type Widget struct {\n\tID int\n}"),
		},
		{
			Path:      "pkg/a.go",
			Name:      "Render",
			Kind:      extract.KindFunction,
			Parent:    "Widget",
			StartLine: 10,
			EndLine:   14,
			Content:   "func (w *Widget) Render() string { return fmt.Sprint(w.ID) }",
			Imports:   []string{"fmt", "strings"},
			Calls:     []string{"Sprint"},
			Hash:      extract.HashText("func (w *Widget) Render() string { return fmt.Sprint(w.ID) }"),
		},
	}
}

func TestReplaceFileAndLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	chunks := sampleChunks()

	require.NoError(t, s.ReplaceFile(ctx, "pkg/a.go", "hash-1", chunks))

	hashes, loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"pkg/a.go": "hash-1"}, hashes)
	require.Len(t, loaded["pkg/a.go"], 2)

	if diff := cmp.Diff(chunks, loaded["pkg/a.go"]); diff != "" {
		t.Errorf("chunks did not round-trip (-want +got):\n%s", diff)
	}
}

func TestReplaceFileIsWholesale(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "pkg/a.go", "hash-1", sampleChunks()))

	// Replace with a single different chunk; the old rows must be gone.
	replacement := []extract.Chunk{{
		Path:      "pkg/a.go",
		Name:      "New",
		Kind:      extract.KindFunction,
		StartLine: 1,
		EndLine:   2,
		Content:   "func New() {}",
		Hash:      extract.HashText("func New() {}"),
	}}
	require.NoError(t, s.ReplaceFile(ctx, "pkg/a.go", "hash-2", replacement))

	hashes, loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "hash-2", hashes["pkg/a.go"])
	require.Len(t, loaded["pkg/a.go"], 1)
	require.Equal(t, "New", loaded["pkg/a.go"][0].Name)
}

func TestDeleteFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "pkg/a.go", "hash-1", sampleChunks()))
	require.NoError(t, s.DeleteFile(ctx, "pkg/a.go"))

	hashes, loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, hashes)
	require.Empty(t, loaded)
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "pkg/a.go", "hash-1", sampleChunks()))
	require.NoError(t, s.ReplaceFile(ctx, "pkg/b.go", "hash-2", nil))
	require.NoError(t, s.Clear(ctx))

	hashes, loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, hashes)
	require.Empty(t, loaded)
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceFile(ctx, "pkg/a.go", "hash-1", sampleChunks()))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	hashes, loaded, err := s2.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "hash-1", hashes["pkg/a.go"])
	require.Len(t, loaded["pkg/a.go"], 2)
}
