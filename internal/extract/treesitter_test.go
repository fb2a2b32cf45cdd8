package extract

import "testing"

const pySample = `import os
from decimal import Decimal

class Cart:
    """A shopping cart."""

    def add(self, item):
        self.items.append(item)

    def computeTotal(self):
        return sum(i.price for i in self.items)

def checkout(cart):
    total = cart.computeTotal()
    print(total)
`

func TestPythonParserChunks(t *testing.T) {
	p := NewPythonParser()
	chunks, err := p.Parse("shop/cart.py", []byte(pySample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	byName := make(map[string]Chunk)
	for _, c := range chunks {
		byName[c.Name] = c
	}

	cart, ok := byName["Cart"]
	if !ok {
		t.Fatal("expected a chunk named Cart")
	}
	if cart.Kind != KindClass {
		t.Errorf("Cart kind = %q, want %q", cart.Kind, KindClass)
	}
	if cart.Doc == "" {
		t.Error("Cart should carry its docstring")
	}

	add, ok := byName["add"]
	if !ok {
		t.Fatal("expected a chunk named add")
	}
	if add.Kind != KindFunction || add.Parent != "Cart" {
		t.Errorf("add = kind %q parent %q, want function/Cart", add.Kind, add.Parent)
	}

	checkout, ok := byName["checkout"]
	if !ok {
		t.Fatal("expected a chunk named checkout")
	}
	if checkout.Parent != "" {
		t.Errorf("checkout parent = %q, want top level", checkout.Parent)
	}
	found := false
	for _, call := range checkout.Calls {
		if call == "computeTotal" {
			found = true
		}
	}
	if !found {
		t.Errorf("checkout should call computeTotal, got %v", checkout.Calls)
	}
}

func TestPythonParserImports(t *testing.T) {
	p := NewPythonParser()
	chunks, err := p.Parse("shop/cart.py", []byte(pySample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	want := map[string]bool{"os": false, "decimal": false}
	for _, imp := range chunks[0].Imports {
		if _, ok := want[imp]; ok {
			want[imp] = true
		}
	}
	for mod, seen := range want {
		if !seen {
			t.Errorf("import %q not collected: %v", mod, chunks[0].Imports)
		}
	}
}

const tsSample = `import { useState } from "react";

export interface Totals {
    amount: number;
}

export class Basket {
    computeTotal(): number {
        return this.items.reduce((a, b) => a + b.price, 0);
    }
}

export const formatTotal = (basket: Basket): string => {
    return String(basket.computeTotal());
};
`

func TestTypeScriptParserChunks(t *testing.T) {
	p := NewTypeScriptParser()
	chunks, err := p.Parse("shop/basket.ts", []byte(tsSample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	byName := make(map[string]Chunk)
	for _, c := range chunks {
		byName[c.Name] = c
	}

	if c, ok := byName["Totals"]; !ok || c.Kind != KindClass {
		t.Errorf("interface Totals should be a class chunk, got %+v", c)
	}
	if c, ok := byName["Basket"]; !ok || c.Kind != KindClass {
		t.Errorf("class Basket should be a class chunk, got %+v", c)
	}
	if c, ok := byName["computeTotal"]; !ok || c.Parent != "Basket" {
		t.Errorf("computeTotal should be a method of Basket, got %+v", c)
	}

	ft, ok := byName["formatTotal"]
	if !ok {
		t.Fatal("arrow function formatTotal should be a chunk")
	}
	if ft.Kind != KindFunction {
		t.Errorf("formatTotal kind = %q, want function", ft.Kind)
	}
	if len(ft.Imports) == 0 || ft.Imports[0] != "react" {
		t.Errorf("formatTotal imports = %v, want [react]", ft.Imports)
	}
}
