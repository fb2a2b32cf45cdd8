// Package tools defines the tool abstraction used by the orchestration
// loop. Every capability the model can invoke is a Tool registered in a
// Registry; the loop dispatches by name through the registry, never by
// reflection.
package tools

import (
	"context"
)

// Category classifies tools by the kind of effect they have. The loop
// uses categories to bias sampling parameters between rounds.
type Category string

const (
	// CategoryRead covers tools that read files or summaries.
	CategoryRead Category = "read"

	// CategoryEdit covers tools that mutate workspace files.
	CategoryEdit Category = "edit"

	// CategorySearch covers index and code search tools.
	CategorySearch Category = "search"

	// CategoryExec covers tools that run external commands.
	CategoryExec Category = "exec"

	// CategoryGeneral is for tools that fit no other category.
	CategoryGeneral Category = "general"
)

// Property describes a single argument in a tool schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// Schema declares the arguments a tool accepts. It is surfaced to the
// model as a JSON schema and enforced before execution.
type Schema struct {
	// Required lists argument names that must be present.
	Required []string `json:"required"`

	// Properties describes each argument.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc runs a tool with decoded arguments and returns its
// textual output.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is a single named capability.
type Tool struct {
	// Name uniquely identifies the tool within a registry.
	Name string

	// Description tells the model what the tool does.
	Description string

	// Category classifies the tool's effect.
	Category Category

	// Execute performs the tool's work.
	Execute ExecuteFunc

	// Schema declares the expected arguments.
	Schema Schema
}

// Validate checks that the tool definition is usable.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Result wraps one tool execution with metadata.
type Result struct {
	// ID correlates the result with the model's tool request.
	ID string

	// ToolName identifies which tool ran.
	ToolName string

	// Output is the tool's textual output.
	Output string

	// Error is set if the tool failed.
	Error error

	// Duration is how long execution took.
	Duration int64 `json:"duration_ms"`
}

// IsSuccess reports whether the tool ran without error.
func (r *Result) IsSuccess() bool {
	return r.Error == nil
}
