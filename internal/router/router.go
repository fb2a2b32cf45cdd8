// Package router classifies tasks into complexity tiers and selects the
// model for each tier. Routing is a pure function: it never fails and
// performs no I/O, so the orchestration loop can call it every round.
package router

import (
	"fmt"
	"strings"

	"codepilot/internal/logging"
)

// Tier is a discrete complexity classification.
type Tier string

const (
	TierSimple  Tier = "simple"
	TierGeneral Tier = "general"
	TierCoding  Tier = "coding"
	TierHeavy   Tier = "heavy"
)

// ModelTable maps each tier to a model identifier.
type ModelTable struct {
	Heavy   string `yaml:"heavy"`
	Coding  string `yaml:"coding"`
	General string `yaml:"general"`
	Simple  string `yaml:"simple"`
}

// Signals records the inputs that drove a routing decision.
type Signals struct {
	MatchedKeyword     string `json:"matched_keyword,omitempty"`
	WordCount          int    `json:"word_count"`
	ContextFiles       int    `json:"context_files"`
	ConversationLength int    `json:"conversation_length"`
}

// Decision is the router's output.
type Decision struct {
	Model     string  `json:"model"`
	Tier      Tier    `json:"tier"`
	Rationale string  `json:"rationale"`
	Signals   Signals `json:"signals"`
}

// Keyword tables, checked in fixed precedence heavy -> coding -> simple.
var (
	heavyKeywords = []string{
		"architecture", "architect", "refactor", "optimize", "optimise",
		"redesign", "system design", "migrate", "migration", "performance",
		"scalability", "concurrency", "distributed", "security audit",
	}
	codingKeywords = []string{
		"implement", "build", "write a", "create a", "fix", "debug",
		"algorithm", "function", "class", "test", "bug", "compile",
		"endpoint", "parser",
	}
	simpleKeywords = []string{
		"explain", "what is", "what does", "list", "show", "status",
		"summarize", "summarise", "describe", "help",
	}
)

const (
	longTaskWords  = 50
	shortTaskWords = 10

	heavyContextFiles   = 5
	longConversationLen = 20
)

// Router selects models by tier.
type Router struct {
	models ModelTable
}

// New creates a router backed by the given tier-to-model table.
func New(models ModelTable) *Router {
	return &Router{models: models}
}

// Route classifies a task and returns the model to use. Keyword matches
// take precedence over the length heuristic; escalation rules for large
// context and long conversations apply after the base classification.
func (r *Router) Route(taskDescription string, contextFiles []string, conversationLength int) Decision {
	lowered := strings.ToLower(taskDescription)
	words := len(strings.Fields(taskDescription))

	signals := Signals{
		WordCount:          words,
		ContextFiles:       len(contextFiles),
		ConversationLength: conversationLength,
	}

	var reasons []string
	tier := TierGeneral

	if kw, ok := matchKeyword(lowered, heavyKeywords); ok {
		tier = TierHeavy
		signals.MatchedKeyword = kw
		reasons = append(reasons, fmt.Sprintf("heavy keyword %q", kw))
	} else if kw, ok := matchKeyword(lowered, codingKeywords); ok {
		tier = TierCoding
		signals.MatchedKeyword = kw
		reasons = append(reasons, fmt.Sprintf("coding keyword %q", kw))
	} else if kw, ok := matchKeyword(lowered, simpleKeywords); ok {
		tier = TierSimple
		signals.MatchedKeyword = kw
		reasons = append(reasons, fmt.Sprintf("simple keyword %q", kw))
	} else {
		switch {
		case words > longTaskWords:
			tier = TierHeavy
			reasons = append(reasons, fmt.Sprintf("long task (%d words)", words))
		case words < shortTaskWords:
			tier = TierSimple
			reasons = append(reasons, fmt.Sprintf("short task (%d words)", words))
		default:
			reasons = append(reasons, fmt.Sprintf("default length heuristic (%d words)", words))
		}
	}

	if len(contextFiles) > heavyContextFiles {
		tier = TierHeavy
		reasons = append(reasons, fmt.Sprintf("%d context files force heavy", len(contextFiles)))
	}
	if conversationLength > longConversationLen && tier == TierSimple {
		tier = TierGeneral
		reasons = append(reasons, fmt.Sprintf("long conversation (%d turns) escalates simple to general", conversationLength))
	}

	decision := Decision{
		Model:     r.modelFor(tier),
		Tier:      tier,
		Rationale: strings.Join(reasons, "; "),
		Signals:   signals,
	}
	logging.RouterDebug("routed tier=%s model=%s: %s", decision.Tier, decision.Model, decision.Rationale)
	return decision
}

// modelFor maps a tier to its configured model, defaulting to the
// general model for anything unmapped.
func (r *Router) modelFor(tier Tier) string {
	var model string
	switch tier {
	case TierHeavy:
		model = r.models.Heavy
	case TierCoding:
		model = r.models.Coding
	case TierSimple:
		model = r.models.Simple
	case TierGeneral:
		model = r.models.General
	}
	if model == "" {
		model = r.models.General
	}
	return model
}

func matchKeyword(lowered string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return kw, true
		}
	}
	return "", false
}
