// Package agent runs the tool orchestration loop: it routes a task to a
// model, lets the model request tools, executes them, and feeds the
// results back until the model answers in plain text or a bound trips.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"codepilot/internal/logging"
	"codepilot/internal/router"
	"codepilot/internal/tools"
)

const (
	// DefaultMaxRounds bounds tool rounds per chat turn.
	DefaultMaxRounds = 5

	// DefaultMaxWorkers bounds concurrent tool executions in one round.
	DefaultMaxWorkers = 5

	// DefaultToolTimeout bounds a single tool execution.
	DefaultToolTimeout = 60 * time.Second

	// DefaultMaxHistory bounds retained conversation messages.
	DefaultMaxHistory = 50

	// DefaultResultBudget caps a tool output fed back to the model.
	DefaultResultBudget = 4000

	// DefaultTemperature is the base sampling temperature.
	DefaultTemperature = 0.4
)

// StopReason explains why a chat turn ended.
type StopReason string

const (
	// StopComplete means the model answered without requesting tools.
	StopComplete StopReason = "complete"

	// StopMaxRounds means the round bound tripped.
	StopMaxRounds StopReason = "max_rounds"

	// StopStuckEdit means the same edit tool failed its precondition in
	// consecutive rounds.
	StopStuckEdit StopReason = "stuck_edit"

	// StopProviderError means the model backend failed.
	StopProviderError StopReason = "provider_error"
)

// ErrProviderFailed wraps terminal provider errors.
var ErrProviderFailed = errors.New("provider call failed")

// Config tunes a Loop.
type Config struct {
	// MaxRounds bounds tool rounds per chat turn.
	MaxRounds int

	// MaxWorkers bounds concurrent tool executions in one round.
	MaxWorkers int

	// ToolTimeout bounds a single tool execution. Zero disables it.
	ToolTimeout time.Duration

	// MaxHistory bounds retained conversation messages. Oldest
	// non-system messages are dropped first.
	MaxHistory int

	// ResultBudget caps a tool output in bytes before it is fed back.
	ResultBudget int

	// SystemPrompt is prepended to every conversation.
	SystemPrompt string

	// Temperature is the base sampling temperature.
	Temperature float64

	// AdaptiveTuning nudges temperature per round based on the
	// previous round's tool mix.
	AdaptiveTuning bool
}

// DefaultConfig returns the standard loop configuration.
func DefaultConfig() Config {
	return Config{
		MaxRounds:      DefaultMaxRounds,
		MaxWorkers:     DefaultMaxWorkers,
		ToolTimeout:    DefaultToolTimeout,
		MaxHistory:     DefaultMaxHistory,
		ResultBudget:   DefaultResultBudget,
		Temperature:    DefaultTemperature,
		AdaptiveTuning: true,
	}
}

// Invocation records one tool execution for the caller.
type Invocation struct {
	Round    int    `json:"round"`
	Tool     string `json:"tool"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration int64  `json:"duration_ms"`
}

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	TurnID      string       `json:"turn_id"`
	Content     string       `json:"content"`
	Rounds      int          `json:"rounds"`
	Model       string       `json:"model"`
	Tier        router.Tier  `json:"tier"`
	StopReason  StopReason   `json:"stop_reason"`
	Invocations []Invocation `json:"invocations,omitempty"`
	Usage       Usage        `json:"usage"`
}

// Loop drives the conversation between a provider and the tool
// registry. It is not safe for concurrent Chat calls; callers serialize
// turns the way a session does.
type Loop struct {
	cfg      Config
	provider Provider
	registry *tools.Registry
	router   *router.Router

	history []Message
}

// NewLoop creates a loop over the given provider, registry, and router.
func NewLoop(provider Provider, registry *tools.Registry, r *router.Router, cfg Config) *Loop {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	if cfg.ResultBudget <= 0 {
		cfg.ResultBudget = DefaultResultBudget
	}
	return &Loop{
		cfg:      cfg,
		provider: provider,
		registry: registry,
		router:   r,
	}
}

// History returns a copy of the retained conversation.
func (l *Loop) History() []Message {
	out := make([]Message, len(l.history))
	copy(out, l.history)
	return out
}

// Reset drops the retained conversation.
func (l *Loop) Reset() {
	l.history = nil
}

// Chat runs one user turn to completion. Tool rounds continue until the
// model answers in plain text, the round bound trips, an edit gets
// stuck, or the provider fails. Provider failures are terminal: the
// partial result is returned alongside the error.
func (l *Loop) Chat(ctx context.Context, task string, contextFiles []string) (*ChatResult, error) {
	turnID := uuid.NewString()
	decision := l.router.Route(task, contextFiles, len(l.history))
	logging.Loop("chat turn %s: model=%s tier=%s provider=%s", turnID, decision.Model, decision.Tier, l.provider.Name())

	l.appendMessage(Message{Role: RoleUser, Content: task})

	result := &ChatResult{
		TurnID: turnID,
		Model:  decision.Model,
		Tier:   decision.Tier,
	}
	defs := l.toolDefinitions()

	// Edit tools that failed their precondition in the previous round.
	// Recomputed every round so the guard only fires on consecutive
	// repeats of the same tool.
	prevStuck := map[string]bool{}
	var prevCategories []tools.Category

	for round := 1; round <= l.cfg.MaxRounds; round++ {
		result.Rounds = round

		temperature := l.cfg.Temperature
		if l.cfg.AdaptiveTuning && round > 1 {
			temperature = tuneTemperature(l.cfg.Temperature, prevCategories)
		}

		completion, err := l.provider.Complete(ctx, CompletionRequest{
			Model:    decision.Model,
			Messages: l.messages(),
			Tools:    defs,
			Sampling: SamplingParams{Temperature: temperature},
		})
		if err != nil {
			result.StopReason = StopProviderError
			return result, fmt.Errorf("%w: %v", ErrProviderFailed, err)
		}
		result.Usage.Add(completion.Usage)

		if len(completion.ToolRequests) == 0 {
			result.Content = completion.Content
			result.StopReason = StopComplete
			l.appendMessage(Message{Role: RoleAssistant, Content: completion.Content})
			logging.Loop("chat turn complete after %d round(s)", round)
			return result, nil
		}

		l.appendMessage(Message{
			Role:         RoleAssistant,
			Content:      completion.Content,
			ToolRequests: completion.ToolRequests,
		})

		logging.LoopDebug("round %d: %d tool request(s)", round, len(completion.ToolRequests))
		results := l.executeRequests(ctx, completion.ToolRequests)

		stuck := map[string]bool{}
		prevCategories = prevCategories[:0]
		var repeated string
		for i, res := range results {
			req := completion.ToolRequests[i]
			prevCategories = append(prevCategories, l.registry.CategoryOf(req.Name))

			inv := Invocation{Round: round, Tool: req.Name, Duration: res.Duration}
			content := truncate(res.Output, l.cfg.ResultBudget)
			if res.Error != nil {
				inv.Error = res.Error.Error()
				content = "ERROR: " + res.Error.Error()
				if errors.Is(res.Error, tools.ErrPreconditionFailed) &&
					l.registry.CategoryOf(req.Name) == tools.CategoryEdit {
					stuck[req.Name] = true
					if prevStuck[req.Name] {
						repeated = req.Name
					}
				}
			} else {
				inv.Output = content
			}
			result.Invocations = append(result.Invocations, inv)

			l.appendMessage(Message{
				Role:       RoleTool,
				Content:    content,
				ToolCallID: req.ID,
				Name:       req.Name,
			})
		}

		if repeated != "" {
			result.StopReason = StopStuckEdit
			result.Content = fmt.Sprintf("Stopping: %s failed the same precondition in consecutive rounds.", repeated)
			logging.LoopWarn("stuck edit detected on %s, aborting turn", repeated)
			return result, nil
		}
		prevStuck = stuck
	}

	result.StopReason = StopMaxRounds
	result.Content = fmt.Sprintf("Stopping after %d tool rounds without a final answer.", l.cfg.MaxRounds)
	logging.LoopWarn("round bound reached (%d)", l.cfg.MaxRounds)
	return result, nil
}

// messages assembles the provider view: system prompt plus history.
func (l *Loop) messages() []Message {
	msgs := make([]Message, 0, len(l.history)+1)
	if l.cfg.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: l.cfg.SystemPrompt})
	}
	return append(msgs, l.history...)
}

// appendMessage retains a message, dropping the oldest entries once the
// history bound is exceeded.
func (l *Loop) appendMessage(msg Message) {
	l.history = append(l.history, msg)
	if over := len(l.history) - l.cfg.MaxHistory; over > 0 {
		l.history = l.history[over:]
	}
}

// toolDefinitions exposes the registry to the model.
func (l *Loop) toolDefinitions() []ToolDefinition {
	all := l.registry.All()
	defs := make([]ToolDefinition, 0, len(all))
	for _, t := range all {
		defs = append(defs, ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Schema:      t.Schema,
		})
	}
	return defs
}
