package codebase

import (
	"codepilot/internal/index"
	"codepilot/internal/tools"
)

// RegisterAll registers all index-backed tools with the given registry.
func RegisterAll(registry *tools.Registry, ix *index.Index) error {
	allTools := []*tools.Tool{
		SearchCodeTool(ix),
		IndexCodebaseTool(ix),
		CodebaseSummaryTool(ix),
		FileSummaryTool(ix),
	}

	for _, tool := range allTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	return nil
}
