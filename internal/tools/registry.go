package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"codepilot/internal/logging"
)

// Registry holds the closed set of tools available to a loop. It is
// safe for concurrent use. There is no package-level registry: callers
// construct one and inject it wherever tools are dispatched.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Registering a second tool under the same name
// is an error.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}

	r.tools[tool.Name] = tool
	logging.ToolsDebug("registered tool %s (category=%s)", tool.Name, tool.Category)
	return nil
}

// MustRegister registers a tool and panics on error. Use for static
// registration during startup.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by name, or nil if not registered.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// CategoryOf returns the category of the named tool. Unknown tools
// report CategoryGeneral.
func (r *Registry) CategoryOf(name string) Category {
	if tool := r.Get(name); tool != nil {
		return tool.Category
	}
	return CategoryGeneral
}

// All returns every registered tool, ordered by name.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs a tool by name. An unknown name yields ErrToolNotFound;
// the loop reports it to the model rather than aborting.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*Result, error) {
	tool := r.Get(name)
	if tool == nil {
		err := fmt.Errorf("%w: %s", ErrToolNotFound, name)
		return &Result{ToolName: name, Error: err}, err
	}
	return r.ExecuteTool(ctx, tool, args)
}

// ExecuteTool runs a specific tool after validating its required
// arguments.
func (r *Registry) ExecuteTool(ctx context.Context, tool *Tool, args map[string]any) (*Result, error) {
	start := time.Now()

	if err := validateArgs(tool, args); err != nil {
		return &Result{
			ToolName: tool.Name,
			Error:    err,
			Duration: time.Since(start).Milliseconds(),
		}, err
	}

	logging.ToolsDebug("executing tool %s", tool.Name)
	output, err := tool.Execute(ctx, args)

	elapsed := time.Since(start)
	logging.ToolsDebug("tool %s completed in %v (success=%v)", tool.Name, elapsed, err == nil)

	return &Result{
		ToolName: tool.Name,
		Output:   output,
		Error:    err,
		Duration: elapsed.Milliseconds(),
	}, err
}

func validateArgs(tool *Tool, args map[string]any) error {
	for _, required := range tool.Schema.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingRequiredArg, required)
		}
	}
	for name, value := range args {
		prop, declared := tool.Schema.Properties[name]
		if !declared || value == nil {
			continue
		}
		if !typeMatches(prop.Type, value) {
			return fmt.Errorf("%w: %s must be %s, got %T", ErrInvalidArgType, name, prop.Type, value)
		}
	}
	return nil
}

// typeMatches checks a decoded JSON value against a schema type.
// Numeric arguments arrive as float64 from the wire but as int from
// direct callers, so both satisfy integer and number.
func typeMatches(declared string, value any) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer", "number":
		switch value.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	}
	return true
}
