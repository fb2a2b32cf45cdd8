package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codepilot/internal/tools"
)

func newTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	if err := RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	return reg
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadFile(t *testing.T) {
	reg := newTestRegistry(t)
	path := writeTemp(t, "notes.txt", "alpha\nbeta\ngamma\ndelta\n")

	result, err := reg.Execute(context.Background(), "read_file", map[string]any{"path": path})
	if err != nil {
		t.Fatalf("read_file failed: %v", err)
	}
	if !strings.Contains(result.Output, "gamma") {
		t.Errorf("unexpected output: %q", result.Output)
	}
}

func TestReadFileLineRange(t *testing.T) {
	reg := newTestRegistry(t)
	path := writeTemp(t, "notes.txt", "alpha\nbeta\ngamma\ndelta\n")

	result, err := reg.Execute(context.Background(), "read_file", map[string]any{
		"path":       path,
		"start_line": float64(2),
		"end_line":   float64(3),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Output != "beta\ngamma" {
		t.Errorf("got %q, want %q", result.Output, "beta\ngamma")
	}
}

func TestReadFileMissing(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Execute(context.Background(), "read_file", map[string]any{"path": "/no/such/file"})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriteFileCreatesDirs(t *testing.T) {
	reg := newTestRegistry(t)
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.txt")

	result, err := reg.Execute(context.Background(), "write_file", map[string]any{
		"path":    path,
		"content": "hello",
	})
	if err != nil {
		t.Fatalf("write_file failed: %v", err)
	}
	if !strings.Contains(result.Output, "Wrote 5 bytes") {
		t.Errorf("unexpected output: %q", result.Output)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("file content = %q, want %q", string(data), "hello")
	}
}

func TestEditFile(t *testing.T) {
	reg := newTestRegistry(t)
	path := writeTemp(t, "code.go", "x := old\ny := old\n")

	result, err := reg.Execute(context.Background(), "edit_file", map[string]any{
		"path":     path,
		"old_text": "old",
		"new_text": "new",
	})
	if err != nil {
		t.Fatalf("edit_file failed: %v", err)
	}
	if !strings.Contains(result.Output, "Replaced 1 occurrence(s)") {
		t.Errorf("unexpected output: %q", result.Output)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "x := new\ny := old\n" {
		t.Errorf("file content = %q", string(data))
	}
}

func TestEditFileReplaceAll(t *testing.T) {
	reg := newTestRegistry(t)
	path := writeTemp(t, "code.go", "x := old\ny := old\n")

	result, err := reg.Execute(context.Background(), "edit_file", map[string]any{
		"path":        path,
		"old_text":    "old",
		"new_text":    "new",
		"replace_all": true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Output, "Replaced 2 occurrence(s)") {
		t.Errorf("unexpected output: %q", result.Output)
	}
}

func TestEditFilePreconditionFailure(t *testing.T) {
	reg := newTestRegistry(t)
	path := writeTemp(t, "code.go", "x := 1\n")

	_, err := reg.Execute(context.Background(), "edit_file", map[string]any{
		"path":     path,
		"old_text": "not present",
		"new_text": "anything",
	})
	if !errors.Is(err, tools.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}

	// File is untouched.
	data, _ := os.ReadFile(path)
	if string(data) != "x := 1\n" {
		t.Errorf("file was modified: %q", string(data))
	}
}

func TestListFiles(t *testing.T) {
	reg := newTestRegistry(t)
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := reg.Execute(context.Background(), "list_files", map[string]any{"path": dir})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(result.Output, ".hidden") {
		t.Error("hidden files should be excluded")
	}
	if !strings.Contains(result.Output, "sub/") {
		t.Errorf("directory marker missing: %q", result.Output)
	}

	result, err = reg.Execute(context.Background(), "list_files", map[string]any{"path": dir, "recursive": true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Output, filepath.Join("sub", "c.txt")) {
		t.Errorf("recursive listing missing nested file: %q", result.Output)
	}
}
