package extract

import (
	"regexp"
	"strings"
)

// declPattern matches declaration keywords common across languages that
// lack a structural parser here (Rust, Ruby, Java, C-family headers, shell
// functions written with the keyword, ...). The captured identifier names
// the chunk.
var declPattern = regexp.MustCompile(
	`^\s*(?:export\s+|pub(?:\([a-z]+\))?\s+|public\s+|private\s+|protected\s+|static\s+|abstract\s+|async\s+)*` +
		`(func|function|def|fn|class|struct|interface|enum|trait|impl|module|sub)\b[\s(]*([A-Za-z_][A-Za-z0-9_]*)?`)

// importPattern matches import-ish lines for the heuristic path so that
// search-by-import still works on unparsed languages.
var importPattern = regexp.MustCompile(
	`^\s*(?:import|from|use|require|include|#include)\s+[<"']?([A-Za-z0-9_./:-]+)`)

// callPattern finds identifier( occurrences for call-target extraction.
var callPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// heuristicKeywords are excluded from call extraction; they precede a
// parenthesis without being calls.
var heuristicKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "return": true,
	"catch": true, "func": true, "function": true, "def": true, "fn": true,
	"match": true, "until": true, "unless": true, "elif": true,
}

// heuristicChunks splits a file at declaration-keyword boundaries. Each
// match opens a block chunk and closes the previous one on the line
// before. Returns nil when no boundary is found.
func heuristicChunks(path string, content []byte) []Chunk {
	lines := strings.Split(string(content), "\n")

	var imports []string
	for _, line := range lines {
		if m := importPattern.FindStringSubmatch(line); m != nil {
			imports = append(imports, m[1])
		}
	}
	imports = dedupPreserve(imports)

	type boundary struct {
		line int // 1-indexed
		name string
	}
	var boundaries []boundary
	for i, line := range lines {
		if m := declPattern.FindStringSubmatch(line); m != nil {
			boundaries = append(boundaries, boundary{line: i + 1, name: m[2]})
		}
	}
	if len(boundaries) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, len(boundaries))
	for i, b := range boundaries {
		end := len(lines)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].line - 1
		}
		text := sliceLines(lines, b.line, end)
		chunks = append(chunks, Chunk{
			Path:      path,
			Name:      b.name,
			Kind:      KindBlock,
			StartLine: b.line,
			EndLine:   end,
			Content:   text,
			Imports:   imports,
			// The declaration line itself is skipped so the chunk does
			// not record its own name as a call target.
			Calls: heuristicCalls(sliceLines(lines, b.line+1, end)),
		})
	}
	return chunks
}

func heuristicCalls(text string) []string {
	var calls []string
	for _, m := range callPattern.FindAllStringSubmatch(text, -1) {
		if heuristicKeywords[m[1]] {
			continue
		}
		calls = append(calls, m[1])
	}
	return dedupPreserve(calls)
}
