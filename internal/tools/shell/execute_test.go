package shell

import (
	"context"
	"runtime"
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

func TestRunCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test commands assume a POSIX shell")
	}
	reg := newTestRegistry(t)

	result, err := reg.Execute(context.Background(), "run_command", map[string]any{
		"command": "echo hello",
	})
	if err != nil {
		t.Fatalf("run_command failed: %v", err)
	}
	if strings.TrimSpace(result.Output) != "hello" {
		t.Errorf("output = %q, want %q", result.Output, "hello")
	}
}

func TestRunCommandWorkingDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test commands assume a POSIX shell")
	}
	reg := newTestRegistry(t)
	dir := t.TempDir()

	result, err := reg.Execute(context.Background(), "run_command", map[string]any{
		"command":     "pwd",
		"working_dir": dir,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Output, dir) {
		t.Errorf("output %q does not mention working dir %q", result.Output, dir)
	}
}

func TestRunCommandFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test commands assume a POSIX shell")
	}
	reg := newTestRegistry(t)

	result, err := reg.Execute(context.Background(), "run_command", map[string]any{
		"command": "echo oops >&2; exit 3",
	})
	if err == nil {
		t.Fatal("expected error for failing command")
	}
	if !strings.Contains(result.Output, "oops") {
		t.Errorf("stderr not captured: %q", result.Output)
	}
}

func TestRunCommandTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test commands assume a POSIX shell")
	}
	reg := newTestRegistry(t)

	_, err := reg.Execute(context.Background(), "run_command", map[string]any{
		"command":         "sleep 5",
		"timeout_seconds": float64(1),
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %v, want timeout", err)
	}
}

func TestRunCommandMissingArg(t *testing.T) {
	reg := newTestRegistry(t)

	if _, err := reg.Execute(context.Background(), "run_command", map[string]any{}); err == nil {
		t.Fatal("expected error for missing command")
	}
}
