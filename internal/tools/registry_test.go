package tools

import (
	"context"
	"errors"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d tools", reg.Count())
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:        "test_tool",
		Description: "A test tool",
		Category:    CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "success", nil
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got := reg.Get("test_tool")
	if got == nil {
		t.Fatal("Get returned nil for registered tool")
	}
	if got.Name != "test_tool" {
		t.Errorf("got name %q, want %q", got.Name, "test_tool")
	}
	if !reg.Has("test_tool") {
		t.Error("Has returned false for registered tool")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:     "dupe",
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", nil
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	err := reg.Register(tool)
	if !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Fatalf("expected ErrToolAlreadyRegistered, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		tool    *Tool
		wantErr error
	}{
		{
			name:    "empty name",
			tool:    &Tool{Name: "", Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }},
			wantErr: ErrToolNameEmpty,
		},
		{
			name:    "nil execute",
			tool:    &Tool{Name: "test", Execute: nil},
			wantErr: ErrToolExecuteNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.tool)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCategoryOf(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Tool{
		Name:     "reader",
		Category: CategoryRead,
		Execute:  func(ctx context.Context, args map[string]any) (string, error) { return "", nil },
	})

	if got := reg.CategoryOf("reader"); got != CategoryRead {
		t.Errorf("CategoryOf(reader) = %s, want %s", got, CategoryRead)
	}
	if got := reg.CategoryOf("unknown"); got != CategoryGeneral {
		t.Errorf("CategoryOf(unknown) = %s, want %s", got, CategoryGeneral)
	}
}

func TestNamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		reg.MustRegister(&Tool{
			Name:     name,
			Category: CategoryGeneral,
			Execute:  func(ctx context.Context, args map[string]any) (string, error) { return "", nil },
		})
	}

	names := reg.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestExecute(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:     "echo",
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			msg, _ := args["message"].(string)
			return "Echo: " + msg, nil
		},
		Schema: Schema{
			Required:   []string{"message"},
			Properties: map[string]Property{"message": {Type: "string"}},
		},
	}

	reg.MustRegister(tool)

	result, err := reg.Execute(context.Background(), "echo", map[string]any{"message": "hello"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Output != "Echo: hello" {
		t.Errorf("got output %q, want %q", result.Output, "Echo: hello")
	}
	if !result.IsSuccess() {
		t.Error("expected IsSuccess to be true")
	}

	_, err = reg.Execute(context.Background(), "echo", map[string]any{})
	if !errors.Is(err, ErrMissingRequiredArg) {
		t.Errorf("expected ErrMissingRequiredArg, got %v", err)
	}
}

func TestValidateArgTypes(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Tool{
		Name:     "typed",
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "ok", nil
		},
		Schema: Schema{
			Required: []string{"path"},
			Properties: map[string]Property{
				"path":  {Type: "string"},
				"limit": {Type: "integer"},
				"all":   {Type: "boolean"},
			},
		},
	})

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{"all valid", map[string]any{"path": "a.go", "limit": 5, "all": true}, false},
		{"float64 satisfies integer", map[string]any{"path": "a.go", "limit": float64(5)}, false},
		{"undeclared arg passes through", map[string]any{"path": "a.go", "extra": struct{}{}}, false},
		{"string for integer", map[string]any{"path": "a.go", "limit": "five"}, true},
		{"number for string", map[string]any{"path": float64(3)}, true},
		{"string for boolean", map[string]any{"path": "a.go", "all": "yes"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Execute(context.Background(), "typed", tt.args)
			if tt.wantErr && !errors.Is(err, ErrInvalidArgType) {
				t.Errorf("expected ErrInvalidArgType, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	reg := NewRegistry()

	result, err := reg.Execute(context.Background(), "nonexistent", map[string]any{})
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if result == nil || result.IsSuccess() {
		t.Fatal("expected a failed result for unknown tool")
	}
	if result.ToolName != "nonexistent" {
		t.Errorf("result tool name = %q, want %q", result.ToolName, "nonexistent")
	}
}

func TestExecuteToolError(t *testing.T) {
	reg := NewRegistry()
	wantErr := errors.New("boom")
	reg.MustRegister(&Tool{
		Name:     "failing",
		Category: CategoryExec,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", wantErr
		},
	})

	result, err := reg.Execute(context.Background(), "failing", map[string]any{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped tool error, got %v", err)
	}
	if result.IsSuccess() {
		t.Error("expected IsSuccess to be false")
	}
}
