package index

import (
	"regexp"
	"strings"

	"codepilot/internal/extract"
	"codepilot/internal/logging"
)

// SearchByName returns up to limit chunks whose name contains the query,
// case-insensitively. Results follow map discovery order.
func (ix *Index) SearchByName(query string, limit int) []extract.Chunk {
	q := strings.ToLower(query)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []extract.Chunk
	for _, chunks := range ix.chunks {
		for _, c := range chunks {
			if c.Name == "" {
				continue
			}
			if strings.Contains(strings.ToLower(c.Name), q) {
				out = append(out, c)
				if limitReached(out, limit) {
					return out
				}
			}
		}
	}
	return out
}

// SearchByContent treats query as a case-insensitive regular expression
// over chunk text. An invalid pattern degrades to a plain substring match.
func (ix *Index) SearchByContent(query string, limit int) []extract.Chunk {
	re, err := regexp.Compile("(?i)" + query)
	var match func(string) bool
	if err != nil {
		logging.IndexDebug("invalid content pattern %q, using substring match: %v", query, err)
		q := strings.ToLower(query)
		match = func(text string) bool {
			return strings.Contains(strings.ToLower(text), q)
		}
	} else {
		match = re.MatchString
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []extract.Chunk
	for _, chunks := range ix.chunks {
		for _, c := range chunks {
			if match(c.Content) {
				out = append(out, c)
				if limitReached(out, limit) {
					return out
				}
			}
		}
	}
	return out
}

// SearchByImport returns up to limit chunks whose import list contains
// a string containing module.
func (ix *Index) SearchByImport(module string, limit int) []extract.Chunk {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []extract.Chunk
	for _, chunks := range ix.chunks {
		for _, c := range chunks {
			for _, imp := range c.Imports {
				if strings.Contains(imp, module) {
					out = append(out, c)
					break
				}
			}
			if limitReached(out, limit) {
				return out
			}
		}
	}
	return out
}

// SearchByCall returns up to limit chunks whose call-target list
// contains an exact match for functionName.
func (ix *Index) SearchByCall(functionName string, limit int) []extract.Chunk {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []extract.Chunk
	for _, chunks := range ix.chunks {
		for _, c := range chunks {
			for _, call := range c.Calls {
				if call == functionName {
					out = append(out, c)
					break
				}
			}
			if limitReached(out, limit) {
				return out
			}
		}
	}
	return out
}

func limitReached(out []extract.Chunk, limit int) bool {
	return limit > 0 && len(out) >= limit
}
