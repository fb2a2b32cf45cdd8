// Package codebase exposes the codebase index as tools: searching
// chunks, triggering indexing, and summarizing files or the whole
// workspace.
package codebase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"codepilot/internal/extract"
	"codepilot/internal/index"
	"codepilot/internal/tools"
)

const defaultSearchLimit = 20

// SearchCodeTool searches indexed chunks by name, content, import, or
// call target.
func SearchCodeTool(ix *index.Index) *tools.Tool {
	return &tools.Tool{
		Name:        "search_code",
		Description: "Search the codebase index for chunks by name, content, import, or call target",
		Category:    tools.CategorySearch,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeSearch(ix, args)
		},
		Schema: tools.Schema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query": {
					Type:        "string",
					Description: "Search term. A substring for name/import modes, a regex for content mode, an exact function name for call mode",
				},
				"mode": {
					Type:        "string",
					Description: "Search mode (default: name)",
					Default:     "name",
					Enum:        []any{"name", "content", "import", "call"},
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of results (default: 20)",
					Default:     defaultSearchLimit,
				},
			},
		},
	}
}

func executeSearch(ix *index.Index, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	mode := "name"
	if m, ok := args["mode"].(string); ok && m != "" {
		mode = m
	}
	limit := intArg(args, "limit", defaultSearchLimit)

	var chunks []extract.Chunk
	switch mode {
	case "name":
		chunks = ix.SearchByName(query, limit)
	case "content":
		chunks = ix.SearchByContent(query, limit)
	case "import":
		chunks = ix.SearchByImport(query, limit)
	case "call":
		chunks = ix.SearchByCall(query, limit)
	default:
		return "", fmt.Errorf("unknown search mode %q", mode)
	}

	if len(chunks) == 0 {
		return fmt.Sprintf("No results for %s search: %s", mode, query), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d result(s) for %s search %q:\n", len(chunks), mode, query)
	for _, c := range chunks {
		fmt.Fprintf(&sb, "%s:%d-%d %s %s", c.Path, c.StartLine, c.EndLine, c.Kind, c.Name)
		if c.Parent != "" {
			fmt.Fprintf(&sb, " (in %s)", c.Parent)
		}
		sb.WriteString("\n")
		if c.Doc != "" {
			fmt.Fprintf(&sb, "  %s\n", firstLine(c.Doc))
		}
	}
	return sb.String(), nil
}

// IndexCodebaseTool indexes the workspace, skipping unchanged files
// unless force is set.
func IndexCodebaseTool(ix *index.Index) *tools.Tool {
	return &tools.Tool{
		Name:        "index_codebase",
		Description: "Index or re-index the workspace. Unchanged files are skipped unless force is true",
		Category:    tools.CategorySearch,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			force, _ := args["force"].(bool)
			result, err := ix.IndexDirectory(ctx, index.Options{Force: force})
			if err != nil {
				return "", fmt.Errorf("indexing failed: %w", err)
			}
			return fmt.Sprintf(
				"Indexed %d file(s) (%d unchanged, %d skipped, %d removed), %d chunks, in %v",
				result.FilesIndexed, result.FilesUnchanged, result.FilesSkipped,
				result.FilesRemoved, result.ChunksCreated, result.Duration.Round(time.Millisecond),
			), nil
		},
		Schema: tools.Schema{
			Properties: map[string]tools.Property{
				"force": {
					Type:        "boolean",
					Description: "Re-extract every file even if its hash is unchanged (default: false)",
					Default:     false,
				},
			},
		},
	}
}

// CodebaseSummaryTool reports aggregate statistics for the index.
func CodebaseSummaryTool(ix *index.Index) *tools.Tool {
	return &tools.Tool{
		Name:        "codebase_summary",
		Description: "Summarize the indexed codebase: file and chunk counts, classes, functions, imports",
		Category:    tools.CategoryRead,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			s := ix.GetCodebaseSummary()
			var sb strings.Builder
			fmt.Fprintf(&sb, "Files: %d\nChunks: %d\nClasses: %d\nFunctions: %d\nUnique imports: %d\n",
				s.Files, s.Chunks, s.Classes, s.Functions, s.UniqueImports)
			if len(s.ByExtension) > 0 {
				sb.WriteString("By extension:\n")
				for _, ext := range sortedKeys(s.ByExtension) {
					fmt.Fprintf(&sb, "  %s: %d\n", ext, s.ByExtension[ext])
				}
			}
			if !s.LastIndexed.IsZero() {
				fmt.Fprintf(&sb, "Last indexed: %s\n", s.LastIndexed.Format(time.RFC3339))
			}
			return sb.String(), nil
		},
	}
}

// FileSummaryTool reports the classes, functions, and imports of one
// indexed file.
func FileSummaryTool(ix *index.Index) *tools.Tool {
	return &tools.Tool{
		Name:        "file_summary",
		Description: "Summarize a single indexed file: its classes, functions, and imports",
		Category:    tools.CategoryRead,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path, _ := args["path"].(string)
			if path == "" {
				return "", fmt.Errorf("path is required")
			}
			s, err := ix.GetFileSummary(path)
			if err != nil {
				return "", err
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "%s (%d chunks)\n", s.Path, s.Chunks)
			if len(s.Classes) > 0 {
				fmt.Fprintf(&sb, "Classes: %s\n", strings.Join(s.Classes, ", "))
			}
			if len(s.Functions) > 0 {
				fmt.Fprintf(&sb, "Functions: %s\n", strings.Join(s.Functions, ", "))
			}
			if len(s.Imports) > 0 {
				fmt.Fprintf(&sb, "Imports: %s\n", strings.Join(s.Imports, ", "))
			}
			return sb.String(), nil
		},
		Schema: tools.Schema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path": {
					Type:        "string",
					Description: "Path of the file, as recorded by the index",
				},
			},
		},
	}
}

// intArg reads an integer argument. JSON-decoded arguments arrive as
// float64, so both numeric forms are accepted.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return def
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
