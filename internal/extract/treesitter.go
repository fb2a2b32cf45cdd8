package extract

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// sitterParser is a tree-sitter backed Parser configured per language.
// A fresh sitter.Parser is created for every Parse call because parsers
// are not safe for concurrent use.
type sitterParser struct {
	language *sitter.Language
	lang     string
	exts     []string

	classTypes  map[string]bool
	funcTypes   map[string]bool
	callTypes   map[string]bool
	importTypes map[string]bool

	// wrapperTypes are transparent containers (decorators, exports)
	// whose children are walked with the same parent context.
	wrapperTypes map[string]bool

	// arrowDecls enables treating `const f = () => {}` declarations
	// as function chunks (JavaScript/TypeScript).
	arrowDecls bool

	// importTarget extracts module names from an import node.
	importTarget func(n *sitter.Node, src []byte) []string

	// docFor extracts leading documentation for a definition node, or "".
	docFor func(n *sitter.Node, src []byte) string
}

// NewPythonParser returns a tree-sitter parser for Python sources.
func NewPythonParser() Parser {
	return &sitterParser{
		language:     python.GetLanguage(),
		lang:         "python",
		exts:         []string{".py", ".pyw", ".pyi"},
		classTypes:   set("class_definition"),
		funcTypes:    set("function_definition"),
		callTypes:    set("call"),
		importTypes:  set("import_statement", "import_from_statement"),
		wrapperTypes: set("decorated_definition"),
		importTarget: pythonImportTargets,
		docFor:       pythonDocstring,
	}
}

// NewJavaScriptParser returns a tree-sitter parser for JavaScript sources.
func NewJavaScriptParser() Parser {
	return &sitterParser{
		language:     javascript.GetLanguage(),
		lang:         "javascript",
		exts:         []string{".js", ".jsx", ".mjs", ".cjs"},
		classTypes:   set("class_declaration"),
		funcTypes:    set("function_declaration", "generator_function_declaration", "method_definition"),
		callTypes:    set("call_expression"),
		importTypes:  set("import_statement"),
		wrapperTypes: set("export_statement"),
		arrowDecls:   true,
		importTarget: sourceImportTargets,
	}
}

// NewTypeScriptParser returns a tree-sitter parser for TypeScript sources.
func NewTypeScriptParser() Parser {
	return &sitterParser{
		language:     typescript.GetLanguage(),
		lang:         "typescript",
		exts:         []string{".ts", ".tsx"},
		classTypes:   set("class_declaration", "abstract_class_declaration", "interface_declaration"),
		funcTypes:    set("function_declaration", "generator_function_declaration", "method_definition"),
		callTypes:    set("call_expression"),
		importTypes:  set("import_statement"),
		wrapperTypes: set("export_statement"),
		arrowDecls:   true,
		importTarget: sourceImportTargets,
	}
}

func (p *sitterParser) Language() string     { return p.lang }
func (p *sitterParser) Extensions() []string { return p.exts }

func (p *sitterParser) Parse(path string, content []byte) ([]Chunk, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(p.language)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	lines := strings.Split(string(content), "\n")
	imports := dedupPreserve(p.collectImports(tree.RootNode(), content))

	var chunks []Chunk
	p.walk(tree.RootNode(), "", path, content, lines, imports, &chunks)
	return chunks, nil
}

// walk emits chunks for class and function definitions. Classes are
// recursed into so their methods become chunks carrying the class name as
// Parent; function bodies are not recursed, keeping nested closures inside
// their enclosing chunk.
func (p *sitterParser) walk(n *sitter.Node, parent, path string, src []byte, lines, imports []string, chunks *[]Chunk) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		t := child.Type()

		switch {
		case p.classTypes[t]:
			name := p.nodeName(child, src)
			*chunks = append(*chunks, p.chunkFor(child, path, name, KindClass, parent, src, lines, imports))
			p.walk(child, name, path, src, lines, imports, chunks)

		case p.funcTypes[t]:
			name := p.nodeName(child, src)
			c := p.chunkFor(child, path, name, KindFunction, parent, src, lines, imports)
			c.Calls = dedupPreserve(p.collectCalls(child, src))
			*chunks = append(*chunks, c)

		case p.arrowDecls && (t == "lexical_declaration" || t == "variable_declaration"):
			if c, ok := p.arrowChunk(child, path, parent, src, lines, imports); ok {
				*chunks = append(*chunks, c)
			} else {
				p.walk(child, parent, path, src, lines, imports, chunks)
			}

		case p.wrapperTypes[t]:
			p.walk(child, parent, path, src, lines, imports, chunks)

		default:
			p.walk(child, parent, path, src, lines, imports, chunks)
		}
	}
}

func (p *sitterParser) chunkFor(n *sitter.Node, path, name string, kind Kind, parent string, src []byte, lines, imports []string) Chunk {
	start := int(n.StartPoint().Row) + 1
	end := int(n.EndPoint().Row) + 1
	doc := ""
	if p.docFor != nil {
		doc = p.docFor(n, src)
	}
	return Chunk{
		Path:      path,
		Name:      name,
		Kind:      kind,
		Parent:    parent,
		StartLine: start,
		EndLine:   end,
		Content:   sliceLines(lines, start, end),
		Doc:       doc,
		Imports:   imports,
	}
}

// arrowChunk emits a function chunk for `const name = (...) => {...}`.
func (p *sitterParser) arrowChunk(n *sitter.Node, path, parent string, src []byte, lines, imports []string) (Chunk, bool) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		value := decl.ChildByFieldName("value")
		if value == nil {
			continue
		}
		if vt := value.Type(); vt != "arrow_function" && vt != "function_expression" && vt != "function" {
			continue
		}
		name := ""
		if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
			name = nameNode.Content(src)
		}
		c := p.chunkFor(n, path, name, KindFunction, parent, src, lines, imports)
		c.Calls = dedupPreserve(p.collectCalls(value, src))
		return c, true
	}
	return Chunk{}, false
}

func (p *sitterParser) nodeName(n *sitter.Node, src []byte) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(src)
	}
	return ""
}

// collectCalls gathers call-target names in a subtree. For member calls
// like obj.method(), the rightmost identifier is recorded.
func (p *sitterParser) collectCalls(n *sitter.Node, src []byte) []string {
	var calls []string
	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		if p.callTypes[node.Type()] {
			if fn := node.ChildByFieldName("function"); fn != nil {
				callee := fn.Content(src)
				if idx := strings.LastIndex(callee, "."); idx >= 0 {
					callee = callee[idx+1:]
				}
				calls = append(calls, strings.TrimSpace(callee))
			}
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			visit(node.NamedChild(i))
		}
	}
	visit(n)
	return calls
}

func (p *sitterParser) collectImports(root *sitter.Node, src []byte) []string {
	var targets []string
	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		if p.importTypes[node.Type()] {
			targets = append(targets, p.importTarget(node, src)...)
			return
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			visit(node.NamedChild(i))
		}
	}
	visit(root)
	return targets
}

// pythonImportTargets handles both `import a.b, c as d` and
// `from pkg import name` forms, returning the module names.
func pythonImportTargets(n *sitter.Node, src []byte) []string {
	if n.Type() == "import_from_statement" {
		if mod := n.ChildByFieldName("module_name"); mod != nil {
			return []string{mod.Content(src)}
		}
		return nil
	}
	var targets []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			targets = append(targets, child.Content(src))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				targets = append(targets, name.Content(src))
			}
		}
	}
	return targets
}

// sourceImportTargets extracts the quoted module source of a JS/TS import.
func sourceImportTargets(n *sitter.Node, src []byte) []string {
	source := n.ChildByFieldName("source")
	if source == nil {
		return nil
	}
	return []string{strings.Trim(source.Content(src), `"'`)}
}

// pythonDocstring returns the leading string literal of a definition body.
func pythonDocstring(n *sitter.Node, src []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return strings.Trim(str.Content(src), `"' `)
}

func set(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}
