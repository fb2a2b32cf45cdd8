package index

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"codepilot/internal/extract"
)

// FileSummary aggregates one file's chunks.
type FileSummary struct {
	Path      string   `json:"path"`
	Classes   []string `json:"classes,omitempty"`
	Functions []string `json:"functions,omitempty"`
	Imports   []string `json:"imports,omitempty"`
	Chunks    int      `json:"chunks"`
}

// CodebaseSummary aggregates the whole snapshot.
type CodebaseSummary struct {
	Files         int            `json:"files"`
	Chunks        int            `json:"chunks"`
	Classes       int            `json:"classes"`
	Functions     int            `json:"functions"`
	UniqueImports int            `json:"unique_imports"`
	ByExtension   map[string]int `json:"by_extension"`
	LastIndexed   time.Time      `json:"last_indexed,omitempty"`
}

// GetFileSummary returns a read-only aggregation for one indexed file.
func (ix *Index) GetFileSummary(path string) (*FileSummary, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	chunks, ok := ix.chunks[path]
	if !ok {
		return nil, fmt.Errorf("file not indexed: %s", path)
	}

	s := &FileSummary{Path: path, Chunks: len(chunks)}
	importSet := make(map[string]bool)
	for _, c := range chunks {
		switch c.Kind {
		case extract.KindClass:
			s.Classes = append(s.Classes, c.Name)
		case extract.KindFunction:
			s.Functions = append(s.Functions, c.Name)
		}
		for _, imp := range c.Imports {
			importSet[imp] = true
		}
	}
	for imp := range importSet {
		s.Imports = append(s.Imports, imp)
	}
	sort.Strings(s.Imports)
	return s, nil
}

// GetCodebaseSummary returns read-only aggregate counts over the current
// snapshot. It never mutates state.
func (ix *Index) GetCodebaseSummary() *CodebaseSummary {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	s := &CodebaseSummary{
		Files:       len(ix.hashes),
		ByExtension: make(map[string]int),
		LastIndexed: ix.lastIndexed,
	}
	importSet := make(map[string]bool)
	for path, chunks := range ix.chunks {
		s.ByExtension[filepath.Ext(path)]++
		s.Chunks += len(chunks)
		for _, c := range chunks {
			switch c.Kind {
			case extract.KindClass:
				s.Classes++
			case extract.KindFunction:
				s.Functions++
			}
			for _, imp := range c.Imports {
				importSet[imp] = true
			}
		}
	}
	s.UniqueImports = len(importSet)
	return s
}
