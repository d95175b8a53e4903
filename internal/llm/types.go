package llm

import "encoding/json"

// Message roles as they appear in conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single conversation turn.
// Assistant messages that requested a tool carry ToolCall; tool messages
// carry the result content plus the ToolCallID they answer.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content,omitempty"`
	ToolCall   *ToolCall `json:"tool_call,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
}

// ToolDef defines a tool the LLM can call.
type ToolDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// ToolCall represents the LLM requesting a tool invocation.
// Calls recovered from the embedded text protocol carry no ID; clients
// render such exchanges as plain text instead of native tool messages.
type ToolCall struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is the outcome of executing a tool call.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Usage reports token consumption for a single API call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// DecisionKind tags the two possible outcomes of a decide call.
type DecisionKind string

const (
	// DecideDirect means the model answered without requesting a tool.
	DecideDirect DecisionKind = "direct_answer"
	// DecideCallTool means the model requested exactly one tool invocation.
	DecideCallTool DecisionKind = "call_tool"
)

// Decision is the normalized result of a decide call. Exactly one of the
// two shapes is populated: a direct answer (Text) or a tool request (Call).
// Text always holds the assistant's raw reply; for tool calls it may
// include prose surrounding the call.
type Decision struct {
	Kind  DecisionKind `json:"kind"`
	Text  string       `json:"text,omitempty"`
	Call  *ToolCall    `json:"call,omitempty"`
	Model string       `json:"model,omitempty"`
	Usage Usage        `json:"usage"`
}

// IsToolCall reports whether the decision requests a tool invocation.
func (d *Decision) IsToolCall() bool {
	return d != nil && d.Kind == DecideCallTool && d.Call != nil
}
