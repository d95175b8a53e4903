// Package tui is the interactive chat interface. The model owns the
// agent and runs each turn as a Bubble Tea command; agent progress
// lines arrive through LogWriter, which routes them to typed messages.
package tui

import (
	"context"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/HexSleeves/parasol/internal/agent"
)

// Program wraps a Bubble Tea program with helper methods for sending events.
type Program struct {
	program *tea.Program
}

// NewProgram creates the chat TUI program. ctx bounds every turn the
// model starts.
func NewProgram(ctx context.Context, ag *agent.Agent) *Program {
	model := NewModel(ctx, ag)
	p := tea.NewProgram(model, tea.WithAltScreen())
	return &Program{program: p}
}

// Run starts the TUI (blocking).
func (p *Program) Run() (tea.Model, error) {
	return p.program.Run()
}

// Send sends a message to the TUI.
func (p *Program) Send(msg tea.Msg) {
	p.program.Send(msg)
}

// LogWriter returns an io.Writer that routes each agent log line to the
// TUI as a typed message. Use this as the output for log.New().
func (p *Program) LogWriter() io.Writer {
	return &tuiWriter{p: p}
}

type tuiWriter struct {
	p   *Program
	buf []byte
}

func (w *tuiWriter) Write(data []byte) (int, error) {
	w.buf = append(w.buf, data...)
	for {
		nl := strings.IndexByte(string(w.buf), '\n')
		if nl == -1 {
			break
		}
		line := string(w.buf[:nl])
		w.buf = w.buf[nl+1:]

		// Strip the log prefix (date/time)
		line = stripLogPrefix(line)

		if line == "" {
			continue
		}

		// Route to appropriate TUI message based on content
		w.routeLine(line)
	}
	return len(data), nil
}

func (w *tuiWriter) routeLine(line string) {
	switch {
	case strings.HasPrefix(line, "🤖 "):
		w.p.Send(DecisionMsg{Text: strings.TrimPrefix(line, "🤖 ")})
	case strings.HasPrefix(line, "🔧 Tool: "):
		rest := strings.TrimPrefix(line, "🔧 Tool: ")
		name, input := rest, ""
		if i := strings.IndexByte(rest, '('); i != -1 && strings.HasSuffix(rest, ")") {
			name, input = rest[:i], rest[i+1:len(rest)-1]
		}
		w.p.Send(ToolCallMsg{Name: name, Input: input})
	case strings.HasPrefix(line, "✓ Result: "):
		w.p.Send(ToolResultMsg{Result: strings.TrimPrefix(line, "✓ Result: ")})
	case strings.HasPrefix(line, "⚠ Tool error: "):
		w.p.Send(ToolResultMsg{Result: strings.TrimPrefix(line, "⚠ Tool error: "), IsError: true})
	case strings.HasPrefix(line, "⚠ "):
		w.p.Send(WarnMsg{Text: strings.TrimPrefix(line, "⚠ ")})
	case strings.HasPrefix(line, "✅ "), strings.HasPrefix(line, "❌ "):
		// Final answers and failures arrive as TurnDoneMsg/TurnFailedMsg;
		// the log echo would duplicate them.
	default:
		w.p.Send(LogMsg{Text: line})
	}
}

// stripLogPrefix removes the standard log prefix "2026/02/14 20:30:59 "
func stripLogPrefix(line string) string {
	// Standard log format: "2006/01/02 15:04:05 <message>"
	if len(line) > 20 && line[4] == '/' && line[7] == '/' && line[10] == ' ' {
		return strings.TrimSpace(line[20:])
	}
	// With microseconds: "2006/01/02 15:04:05.000000 <message>"
	if len(line) > 27 && line[4] == '/' && line[7] == '/' && line[19] == '.' {
		return strings.TrimSpace(line[27:])
	}
	// Tagged: "[TEST] 2006/01/02 15:04:05 <message>"
	if strings.HasPrefix(line, "[") {
		if idx := strings.Index(line, "] "); idx != -1 {
			return stripLogPrefix(line[idx+2:])
		}
	}
	return strings.TrimSpace(line)
}
