// Package extract turns source files into structural chunks.
//
// A chunk is a named, line-ranged unit of a file: a class, a function, a
// heuristic block, or the whole file. Languages with a structural parser
// (Go via go/ast; Python, JavaScript and TypeScript via tree-sitter) get
// precise chunks with imports and call targets. Everything else falls back
// to a declaration-boundary heuristic, and as a last resort to a single
// whole-file chunk, so every indexed file stays queryable.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"codepilot/internal/logging"
)

// Kind classifies a chunk.
type Kind string

const (
	KindClass    Kind = "class"
	KindFunction Kind = "function"
	KindBlock    Kind = "block"
	KindFile     Kind = "file"
)

// Chunk is a contiguous structural unit of a source file.
// StartLine and EndLine are 1-indexed and inclusive.
type Chunk struct {
	Path      string   `json:"path"`
	Name      string   `json:"name,omitempty"`
	Kind      Kind     `json:"kind"`
	Parent    string   `json:"parent,omitempty"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Content   string   `json:"content"`
	Doc       string   `json:"doc,omitempty"`
	Imports   []string `json:"imports,omitempty"`
	Calls     []string `json:"calls,omitempty"`
	Hash      string   `json:"hash"`
}

// Parser extracts chunks from one language.
type Parser interface {
	// Parse returns the chunks for a file. A nil slice with nil error
	// means the file had no extractable structure.
	Parse(path string, content []byte) ([]Chunk, error)

	// Extensions returns the file extensions this parser handles,
	// with the leading dot.
	Extensions() []string

	// Language is a short identifier such as "go" or "python".
	Language() string
}

// Extractor routes files to language parsers and applies the fallback
// chain. It is safe for concurrent use; parsers are registered up front.
type Extractor struct {
	parsers map[string]Parser // extension -> parser
}

// NewExtractor builds an extractor with all built-in language parsers.
func NewExtractor() *Extractor {
	e := &Extractor{parsers: make(map[string]Parser)}
	e.register(NewGoParser())
	e.register(NewPythonParser())
	e.register(NewJavaScriptParser())
	e.register(NewTypeScriptParser())
	return e
}

func (e *Extractor) register(p Parser) {
	for _, ext := range p.Extensions() {
		e.parsers[ext] = p
	}
}

// Languages returns the extensions that have a structural parser.
func (e *Extractor) Languages() []string {
	exts := make([]string, 0, len(e.parsers))
	for ext := range e.parsers {
		exts = append(exts, ext)
	}
	return exts
}

// Extract returns the chunks for a file. It never fails: a structural
// parse error degrades to the heuristic scanner, and a heuristic miss
// degrades to a single whole-file chunk.
func (e *Extractor) Extract(path string, content []byte) []Chunk {
	ext := strings.ToLower(filepath.Ext(path))

	var chunks []Chunk
	if parser, ok := e.parsers[ext]; ok {
		parsed, err := parser.Parse(path, content)
		if err != nil {
			logging.ExtractDebug("structural parse failed for %s, degrading to heuristic: %v", path, err)
		} else {
			chunks = parsed
		}
	}

	if len(chunks) == 0 {
		chunks = heuristicChunks(path, content)
	}
	if len(chunks) == 0 {
		chunks = []Chunk{wholeFileChunk(path, content)}
	}

	for i := range chunks {
		chunks[i].Hash = HashText(chunks[i].Content)
	}
	logging.ExtractDebug("extracted %d chunks from %s", len(chunks), path)
	return chunks
}

// wholeFileChunk covers the entire file as a single chunk so that data
// files and unparseable sources remain searchable.
func wholeFileChunk(path string, content []byte) Chunk {
	text := string(content)
	lines := strings.Count(text, "\n") + 1
	return Chunk{
		Path:      path,
		Name:      filepath.Base(path),
		Kind:      KindFile,
		StartLine: 1,
		EndLine:   lines,
		Content:   text,
	}
}

// HashText returns the hex SHA-256 digest of a string.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashBytes returns the hex SHA-256 digest of raw bytes.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// sliceLines returns the text of lines start..end (1-indexed, inclusive).
func sliceLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

// dedupPreserve removes duplicates while keeping first-seen order and case.
func dedupPreserve(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
