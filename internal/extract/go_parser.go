package extract

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// GoParser extracts chunks from Go source using the standard go/ast
// package, which is more precise than a grammar-based parse for Go.
type GoParser struct{}

// NewGoParser returns a parser for .go files.
func NewGoParser() *GoParser { return &GoParser{} }

func (p *GoParser) Language() string     { return "go" }
func (p *GoParser) Extensions() []string { return []string{".go"} }

// Parse emits one class chunk per struct/interface type declaration and
// one function chunk per function or method. Methods carry their receiver
// type as Parent. File-scope imports are attached to every chunk.
func (p *GoParser) Parse(path string, content []byte) ([]Chunk, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")

	var imports []string
	for _, imp := range file.Imports {
		if target, err := strconv.Unquote(imp.Path.Value); err == nil {
			imports = append(imports, target)
		}
	}
	imports = dedupPreserve(imports)

	var chunks []Chunk
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			chunks = append(chunks, p.funcChunk(fset, d, path, lines, imports))
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				switch ts.Type.(type) {
				case *ast.StructType, *ast.InterfaceType:
					chunks = append(chunks, p.typeChunk(fset, d, ts, path, lines, imports))
				}
			}
		}
	}
	return chunks, nil
}

func (p *GoParser) funcChunk(fset *token.FileSet, decl *ast.FuncDecl, path string, lines, imports []string) Chunk {
	start := fset.Position(decl.Pos()).Line
	end := fset.Position(decl.End()).Line

	doc := ""
	if decl.Doc != nil {
		doc = strings.TrimSpace(decl.Doc.Text())
		start = fset.Position(decl.Doc.Pos()).Line
	}

	parent := ""
	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		parent = receiverTypeName(decl.Recv.List[0].Type)
	}

	return Chunk{
		Path:      path,
		Name:      decl.Name.Name,
		Kind:      KindFunction,
		Parent:    parent,
		StartLine: start,
		EndLine:   end,
		Content:   sliceLines(lines, start, end),
		Doc:       doc,
		Imports:   imports,
		Calls:     collectGoCalls(decl),
	}
}

func (p *GoParser) typeChunk(fset *token.FileSet, decl *ast.GenDecl, spec *ast.TypeSpec, path string, lines, imports []string) Chunk {
	start := fset.Position(decl.Pos()).Line
	end := fset.Position(decl.End()).Line

	doc := ""
	if decl.Doc != nil {
		doc = strings.TrimSpace(decl.Doc.Text())
		start = fset.Position(decl.Doc.Pos()).Line
	} else if spec.Doc != nil {
		doc = strings.TrimSpace(spec.Doc.Text())
	}

	return Chunk{
		Path:      path,
		Name:      spec.Name.Name,
		Kind:      KindClass,
		StartLine: start,
		EndLine:   end,
		Content:   sliceLines(lines, start, end),
		Doc:       doc,
		Imports:   imports,
	}
}

// collectGoCalls walks a declaration's subtree and returns the called
// function names, deduplicated in first-seen order.
func collectGoCalls(decl ast.Node) []string {
	var calls []string
	ast.Inspect(decl, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		switch fn := call.Fun.(type) {
		case *ast.Ident:
			calls = append(calls, fn.Name)
		case *ast.SelectorExpr:
			calls = append(calls, fn.Sel.Name)
		}
		return true
	})
	return dedupPreserve(calls)
}

// receiverTypeName resolves the bare type name of a method receiver,
// unwrapping pointers and generic instantiations.
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	}
	return ""
}
