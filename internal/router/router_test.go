package router

import (
	"strings"
	"testing"
)

var testModels = ModelTable{
	Heavy:   "heavy-model",
	Coding:  "coding-model",
	General: "general-model",
	Simple:  "simple-model",
}

func TestRouteKeywordTiers(t *testing.T) {
	r := New(testModels)

	cases := []struct {
		name string
		task string
		want Tier
	}{
		{"heavy refactor", "refactor the entire billing module", TierHeavy},
		{"heavy architecture", "review the architecture of the index", TierHeavy},
		{"coding implement", "implement a retry wrapper for the client", TierCoding},
		{"coding debug", "debug the failing watcher loop", TierCoding},
		{"simple status", "what is the git status", TierSimple},
		{"simple explain", "explain this regex", TierSimple},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := r.Route(tc.task, nil, 0)
			if d.Tier != tc.want {
				t.Fatalf("Route(%q) tier = %s, want %s (%s)", tc.task, d.Tier, tc.want, d.Rationale)
			}
		})
	}
}

func TestRouteKeywordPrecedence(t *testing.T) {
	r := New(testModels)

	// A task mentioning both heavy and coding keywords classifies heavy.
	d := r.Route("refactor and then implement the new parser", nil, 0)
	if d.Tier != TierHeavy {
		t.Fatalf("tier = %s, want heavy", d.Tier)
	}

	// Coding beats simple.
	d = r.Route("explain and then fix the off by one", nil, 0)
	if d.Tier != TierCoding {
		t.Fatalf("tier = %s, want coding", d.Tier)
	}
}

func TestRouteLengthHeuristic(t *testing.T) {
	r := New(testModels)

	short := "rename this one variable now"
	d := r.Route(short, nil, 0)
	if d.Tier != TierSimple {
		t.Fatalf("short task tier = %s, want simple", d.Tier)
	}

	long := strings.Repeat("compare the two approaches ", 15) // 60 words, no keywords
	d = r.Route(long, nil, 0)
	if d.Tier != TierHeavy {
		t.Fatalf("long task tier = %s, want heavy", d.Tier)
	}

	mid := strings.Repeat("compare the two approaches ", 4) // 16 words
	d = r.Route(mid, nil, 0)
	if d.Tier != TierGeneral {
		t.Fatalf("mid task tier = %s, want general", d.Tier)
	}
}

func TestRouteContextFileEscalation(t *testing.T) {
	r := New(testModels)

	files := []string{"a.go", "b.go", "c.go", "d.go", "e.go", "f.go"}
	d := r.Route("what is the git status", files, 0)
	if d.Tier != TierHeavy {
		t.Fatalf("tier = %s, want heavy with %d context files", d.Tier, len(files))
	}
	if d.Model != "heavy-model" {
		t.Fatalf("model = %s, want heavy-model", d.Model)
	}

	// Exactly five files does not escalate.
	d = r.Route("what is the git status", files[:5], 0)
	if d.Tier != TierSimple {
		t.Fatalf("tier = %s, want simple with 5 context files", d.Tier)
	}
}

func TestRouteConversationEscalation(t *testing.T) {
	r := New(testModels)

	d := r.Route("what is the git status", nil, 21)
	if d.Tier != TierGeneral {
		t.Fatalf("tier = %s, want general after 21 turns", d.Tier)
	}

	// Long conversations only lift simple, not coding.
	d = r.Route("fix the failing test", nil, 21)
	if d.Tier != TierCoding {
		t.Fatalf("tier = %s, want coding after 21 turns", d.Tier)
	}
}

func TestRouteDeterministic(t *testing.T) {
	r := New(testModels)

	first := r.Route("refactor the entire billing module", nil, 3)
	for i := 0; i < 10; i++ {
		d := r.Route("refactor the entire billing module", nil, 3)
		if d != first {
			t.Fatalf("decision changed on repeat call: %+v vs %+v", d, first)
		}
	}
}

func TestRouteUnmappedTierFallsBack(t *testing.T) {
	r := New(ModelTable{General: "general-model"})

	d := r.Route("refactor the entire billing module", nil, 0)
	if d.Tier != TierHeavy {
		t.Fatalf("tier = %s, want heavy", d.Tier)
	}
	if d.Model != "general-model" {
		t.Fatalf("model = %s, want fallback general-model", d.Model)
	}
}
