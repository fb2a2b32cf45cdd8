package agent

import (
	"context"

	"codepilot/internal/tools"
)

// Role identifies a message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolRequests is set on assistant messages that request tool use.
	ToolRequests []ToolRequest `json:"tool_requests,omitempty"`

	// ToolCallID and Name are set on tool-result messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// ToolRequest is the model asking for one tool execution.
type ToolRequest struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolDefinition describes an available tool to the model.
type ToolDefinition struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Schema      tools.Schema `json:"schema"`
}

// SamplingParams tune generation.
type SamplingParams struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// CompletionRequest is one model call.
type CompletionRequest struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Sampling SamplingParams   `json:"sampling"`
}

// Usage counts tokens for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Add accumulates usage across rounds.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
}

// Completion is the model's response to one request.
type Completion struct {
	Content      string        `json:"content"`
	ToolRequests []ToolRequest `json:"tool_requests,omitempty"`
	Usage        Usage         `json:"usage"`
}

// Provider is a model backend. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Complete performs one model call.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// Name identifies the backend for logging.
	Name() string
}
