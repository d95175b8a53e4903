// Package agent implements the function-calling decision loop. One query
// turn runs decide, then optionally execute tool and finalize, against
// the backend the selector resolves. In auto mode an unavailable primary
// falls back to the secondary; the backend that wins the decision keeps
// the whole turn so conversational state never mixes across providers.
package agent

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	agerrors "github.com/HexSleeves/parasol/internal/errors"
	"github.com/HexSleeves/parasol/internal/llm"
	"github.com/HexSleeves/parasol/internal/tool"
)

// State names the stage a turn is in. Terminal states are StateDone and
// StateFailed.
type State string

const (
	StateStart         State = "start"
	StateDeciding      State = "deciding"
	StateToolExecuting State = "tool_executing"
	StateFinalizing    State = "finalizing"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// TurnResult reports one completed query turn.
type TurnResult struct {
	FinalAnswer string
	UsedTool    bool
	Backend     string
	Duration    time.Duration
}

// Agent runs the decide / execute / finalize pipeline. Turns are
// independent; no conversation state survives between them.
type Agent struct {
	selector   *Selector
	registry   *tool.Registry
	maxRetries int
	logger     *log.Logger
	quiet      bool
}

// New creates an agent over the given selector and tool registry.
// maxRetries is the per-backend retry budget for a single call; a nil
// logger discards progress output.
func New(selector *Selector, registry *tool.Registry, maxRetries int, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Agent{
		selector:   selector,
		registry:   registry,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// SetQuiet suppresses progress logging.
func (a *Agent) SetQuiet(quiet bool) { a.quiet = quiet }

// Mode returns the current backend selection mode.
func (a *Agent) Mode() Mode { return a.selector.Mode() }

// SetMode changes the backend used by subsequent turns. A turn already
// running keeps the backends it resolved at start.
func (a *Agent) SetMode(mode Mode) { a.selector.SetMode(mode) }

// Switch sets the mode by user-facing name ("auto", "primary", or a
// backend name) and returns the mode it resolved to.
func (a *Agent) Switch(name string) (Mode, error) { return a.selector.Switch(name) }

// Selector exposes the backend selector, mainly for status display.
func (a *Agent) Selector() *Selector { return a.selector }

// RunTurn answers one query. The eligible backends are resolved once,
// before the decision call; mode switches during the turn only affect
// later turns.
func (a *Agent) RunTurn(ctx context.Context, query string) (*TurnResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	start := time.Now()
	tools := a.registry.Defs()
	history := []llm.Message{
		{Role: llm.RoleSystem, Content: buildSystemPrompt(tools)},
		{Role: llm.RoleUser, Content: query},
	}

	client, decision, err := a.decide(ctx, history, tools)
	if err != nil {
		return nil, a.fail(StateDeciding, err)
	}

	if !decision.IsToolCall() {
		answer := Sentence(decision.Text)
		if answer == "" {
			return nil, a.fail(StateDeciding, fmt.Errorf("backend %s returned an empty reply", client.Name()))
		}
		if !a.quiet {
			a.logger.Printf("✅ Answer (%s): %s", client.Name(), answer)
		}
		return &TurnResult{
			FinalAnswer: answer,
			UsedTool:    false,
			Backend:     client.Name(),
			Duration:    time.Since(start),
		}, nil
	}

	call := decision.Call
	if !a.quiet {
		a.logger.Printf("🔧 Tool: %s(%s)", call.Name, call.Arguments)
	}
	result, err := a.registry.Execute(ctx, call)
	if err != nil {
		return nil, a.fail(StateToolExecuting, err)
	}
	if !a.quiet {
		if result.IsError {
			a.logger.Printf("⚠ Tool error: %s", result.Content)
		} else {
			a.logger.Printf("✓ Result: %s", preview(result.Content))
		}
	}

	history = append(history,
		llm.Message{Role: llm.RoleAssistant, Content: decision.Text, ToolCall: call},
		llm.Message{Role: llm.RoleTool, Content: result.Content, ToolCallID: result.ToolCallID},
		llm.Message{Role: llm.RoleUser, Content: finalizeInstruction},
	)

	// The backend that made the decision also finalizes; switching
	// providers mid-turn would hand one model the other's conversation.
	text, err := llm.RetryCall(ctx, a.maxRetries, a.logger, func() (string, error) {
		return client.Finalize(ctx, history)
	})
	if err != nil {
		return nil, a.fail(StateFinalizing, err)
	}

	answer := Sentence(text)
	if answer == "" {
		return nil, a.fail(StateFinalizing, fmt.Errorf("backend %s produced an empty answer", client.Name()))
	}
	if !a.quiet {
		a.logger.Printf("✅ Answer (%s): %s", client.Name(), answer)
	}
	return &TurnResult{
		FinalAnswer: answer,
		UsedTool:    true,
		Backend:     client.Name(),
		Duration:    time.Since(start),
	}, nil
}

// decide asks each candidate backend in order until one returns a
// decision. Only unavailability moves on to the next backend; any other
// failure fails the turn. With a single pinned candidate its
// unavailability is surfaced as-is.
func (a *Agent) decide(ctx context.Context, history []llm.Message, tools []llm.ToolDef) (llm.Client, *llm.Decision, error) {
	candidates := a.selector.Candidates()

	var failures []error
	for i, client := range candidates {
		if i > 0 && !a.quiet {
			a.logger.Printf("⚠ Falling back to %s", client.Name())
		}

		decision, err := llm.RetryCall(ctx, a.maxRetries, a.logger, func() (*llm.Decision, error) {
			return client.Decide(ctx, history, tools)
		})
		if err == nil {
			if !a.quiet {
				if decision.IsToolCall() {
					a.logger.Printf("🤖 %s decided to call %s", client.Name(), decision.Call.Name)
				} else {
					a.logger.Printf("🤖 %s answered directly", client.Name())
				}
			}
			return client, decision, nil
		}
		if !agerrors.IsBackendUnavailable(err) {
			return nil, nil, err
		}
		if !a.quiet {
			a.logger.Printf("⚠ Backend %s unavailable: %v", client.Name(), err)
		}
		failures = append(failures, err)
	}

	if len(failures) == 1 {
		return nil, nil, failures[0]
	}
	return nil, nil, &agerrors.AllBackendsUnavailableError{Errs: failures}
}

// fail reports a terminal turn failure.
func (a *Agent) fail(state State, err error) error {
	if !a.quiet {
		a.logger.Printf("❌ Turn failed (%s): %v", state, err)
	}
	return fmt.Errorf("turn failed (%s): %w", state, err)
}

// preview truncates long tool output for the log.
func preview(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
