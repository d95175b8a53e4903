package tui

import "github.com/HexSleeves/parasol/internal/agent"

// TUI event types, sent from the turn runner and the agent's log stream
// to the chat model via tea.Program.Send()

// DecisionMsg is the backend's routing decision for the current turn.
type DecisionMsg struct {
	Text string
}

// ToolCallMsg is emitted when the agent invokes a tool.
type ToolCallMsg struct {
	Name  string
	Input string // truncated JSON
}

// ToolResultMsg is the result of a tool call.
type ToolResultMsg struct {
	Result  string // truncated
	IsError bool
}

// WarnMsg is a fallback or backend-availability warning.
type WarnMsg struct {
	Text string
}

// TurnDoneMsg delivers the final answer for a submitted query.
type TurnDoneMsg struct {
	Result *agent.TurnResult
}

// TurnFailedMsg delivers a turn failure.
type TurnFailedMsg struct {
	Err error
}

// LogMsg is a raw log line (fallback for non-structured output).
type LogMsg struct {
	Text string
}

// TickMsg is a periodic timer for updating elapsed times.
type TickMsg struct{}
