// Package tool implements the agent's tool registry. Tools are registered
// once at startup; the registry hands their schemas to the LLM clients and
// executes the calls a backend decides to make.
//
// Execution follows a soft-failure policy: a handler error or panic becomes
// an error-flagged result the model can read and answer around. Only a call
// naming an unregistered tool fails the turn.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	agerrors "github.com/HexSleeves/parasol/internal/errors"
	"github.com/HexSleeves/parasol/internal/llm"
)

// Handler executes a tool call and returns the result string.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Registry maps tool names to their definitions and handlers.
// Register everything during startup; Execute may then be called freely.
type Registry struct {
	defs     []llm.ToolDef
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a tool definition and its handler. Tool names are unique;
// registering an existing name is an error.
func (r *Registry) Register(def llm.ToolDef, handler Handler) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool %s: handler is required", def.Name)
	}
	if _, exists := r.handlers[def.Name]; exists {
		return fmt.Errorf("tool %s already registered", def.Name)
	}
	r.defs = append(r.defs, def)
	r.handlers[def.Name] = handler
	return nil
}

// Defs returns the registered tool definitions in registration order.
func (r *Registry) Defs() []llm.ToolDef {
	out := make([]llm.ToolDef, len(r.defs))
	copy(out, r.defs)
	return out
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return nil, agerrors.NewToolNotFound(name)
	}
	return handler, nil
}

// Execute runs the tool named by call. An unregistered name is the only
// hard failure; handler errors and panics come back as error-flagged
// results so the backend can still produce an answer.
func (r *Registry) Execute(ctx context.Context, call *llm.ToolCall) (*llm.ToolResult, error) {
	handler, err := r.Lookup(call.Name)
	if err != nil {
		return nil, err
	}

	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	output, execErr := runHandler(ctx, call.Name, handler, args)

	result := &llm.ToolResult{ToolCallID: call.ID, Name: call.Name}
	if execErr != nil {
		result.Content = fmt.Sprintf("Tool %s failed: %v", call.Name, execErr)
		result.IsError = true
		return result, nil
	}
	result.Content = output
	return result, nil
}

// runHandler invokes handler with panic recovery so a buggy tool cannot
// take down the turn.
func runHandler(ctx context.Context, name string, handler Handler, args json.RawMessage) (output string, err error) {
	defer func() {
		if rec := agerrors.RecoverPanic(recover()); rec.Recovered {
			output = ""
			err = fmt.Errorf("tool %s panicked: %s", name, rec.ErrorMsg)
		}
	}()
	return handler(ctx, args)
}
