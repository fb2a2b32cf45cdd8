package extract

import (
	"testing"
)

const goSample = `package billing

import (
	"fmt"
	"strings"
)

// Invoice is a billable document.
type Invoice struct {
	Items []LineItem
}

// LineItem is one row of an invoice.
type LineItem struct {
	Amount int
}

// Total sums all line items.
func (inv *Invoice) Total() int {
	total := 0
	for _, item := range inv.Items {
		total += item.Amount
	}
	return total
}

func formatTotal(inv *Invoice) string {
	return strings.TrimSpace(fmt.Sprintf("%d", inv.Total()))
}
`

func TestGoParserChunks(t *testing.T) {
	p := NewGoParser()
	chunks, err := p.Parse("billing/invoice.go", []byte(goSample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	byName := make(map[string]Chunk)
	for _, c := range chunks {
		byName[c.Name] = c
	}

	inv, ok := byName["Invoice"]
	if !ok {
		t.Fatal("expected a chunk named Invoice")
	}
	if inv.Kind != KindClass {
		t.Errorf("Invoice kind = %q, want %q", inv.Kind, KindClass)
	}
	if inv.Doc == "" {
		t.Error("Invoice should carry its doc comment")
	}

	total, ok := byName["Total"]
	if !ok {
		t.Fatal("expected a chunk named Total")
	}
	if total.Kind != KindFunction {
		t.Errorf("Total kind = %q, want %q", total.Kind, KindFunction)
	}
	if total.Parent != "Invoice" {
		t.Errorf("Total parent = %q, want Invoice", total.Parent)
	}
	if total.StartLine > total.EndLine {
		t.Errorf("invalid line range %d..%d", total.StartLine, total.EndLine)
	}

	ft, ok := byName["formatTotal"]
	if !ok {
		t.Fatal("expected a chunk named formatTotal")
	}
	wantCalls := map[string]bool{"TrimSpace": true, "Sprintf": true, "Total": true}
	for _, call := range ft.Calls {
		delete(wantCalls, call)
	}
	if len(wantCalls) != 0 {
		t.Errorf("formatTotal missing calls: %v (got %v)", wantCalls, ft.Calls)
	}
}

func TestGoParserImportsOnEveryChunk(t *testing.T) {
	p := NewGoParser()
	chunks, err := p.Parse("billing/invoice.go", []byte(goSample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for _, c := range chunks {
		found := false
		for _, imp := range c.Imports {
			if imp == "strings" {
				found = true
			}
		}
		if !found {
			t.Errorf("chunk %q missing file-scope import strings: %v", c.Name, c.Imports)
		}
	}
}

func TestGoParserRejectsInvalidSource(t *testing.T) {
	p := NewGoParser()
	if _, err := p.Parse("bad.go", []byte("this is not go {{{")); err == nil {
		t.Fatal("expected parse error for invalid source")
	}
}
