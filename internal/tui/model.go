package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/HexSleeves/parasol/internal/agent"
)

const (
	maxTranscriptLines = 500
	tickInterval       = time.Second
)

// chatLine is one unstyled transcript line; styling happens at render
// time so resizes re-wrap cleanly.
type chatLine struct {
	text  string
	style string // "user", "answer", "meta", "think", "tool", "result", "warn", "error", "info"
}

// Model is the Bubble Tea model for the Parasol chat TUI.
type Model struct {
	agent   *agent.Agent
	rootCtx context.Context

	transcript []chatLine
	viewport   viewport.Model
	input      textinput.Model
	spin       spinner.Model

	busy       bool
	cancelTurn context.CancelFunc
	turnStart  time.Time
	turns      int

	width  int
	height int

	startTime time.Time
	quitting  bool
}

// NewModel creates the chat model. Wire the agent's logger to the
// program's LogWriter so progress lines reach the transcript.
func NewModel(ctx context.Context, ag *agent.Agent) Model {
	ti := textinput.New()
	ti.Prompt = "❯ "
	ti.PromptStyle = promptStyle
	ti.Placeholder = "ask about the weather, or /help"
	ti.CharLimit = 512
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	vp := viewport.New(0, 0)
	vp.KeyMap.Up.SetKeys("up")
	vp.KeyMap.Down.SetKeys("down")
	vp.KeyMap.PageUp.SetEnabled(false)
	vp.KeyMap.PageDown.SetEnabled(false)
	vp.KeyMap.HalfPageUp.SetEnabled(false)
	vp.KeyMap.HalfPageDown.SetEnabled(false)

	return Model{
		agent:     ag,
		rootCtx:   ctx,
		viewport:  vp,
		input:     ti,
		spin:      sp,
		startTime: time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tickCmd(), tea.WindowSize())
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.cancelTurn != nil {
				m.cancelTurn()
			}
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEsc:
			// Cancel the running turn; the cancellation surfaces as a
			// TurnFailedMsg with context.Canceled.
			if m.busy && m.cancelTurn != nil {
				m.cancelTurn()
				m.cancelTurn = nil
			}
			return m, nil
		case tea.KeyEnter:
			return m.handleSubmit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpH := msg.Height - 4 // input, footer, spacing
		if vpH < 3 {
			vpH = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vpH
		m.input.Width = msg.Width - 3
		m.refreshViewport()
		return m, nil

	case TickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case DecisionMsg:
		m.appendLine("🤖 "+msg.Text, "think")
		return m, nil

	case ToolCallMsg:
		line := "🔧 " + msg.Name
		if msg.Input != "" {
			input := msg.Input
			if len(input) > 80 {
				input = input[:80] + "..."
			}
			line += "(" + input + ")"
		}
		m.appendLine(line, "tool")
		return m, nil

	case ToolResultMsg:
		m.appendToolResult(msg)
		return m, nil

	case WarnMsg:
		m.appendLine("⚠ "+msg.Text, "warn")
		return m, nil

	case LogMsg:
		m.appendLine(msg.Text, "info")
		return m, nil

	case TurnDoneMsg:
		m.busy = false
		m.cancelTurn = nil
		m.turns++
		res := msg.Result
		m.appendLine("☂ "+res.FinalAnswer, "answer")
		meta := fmt.Sprintf("%s, %.1fs", res.Backend, res.Duration.Seconds())
		m.appendLine(meta, "meta")
		return m, nil

	case TurnFailedMsg:
		m.busy = false
		m.cancelTurn = nil
		if errors.Is(msg.Err, context.Canceled) {
			m.appendLine("⊘ cancelled", "warn")
		} else {
			m.appendLine("❌ "+msg.Err.Error(), "error")
		}
		return m, nil
	}

	var cmd1, cmd2 tea.Cmd
	m.viewport, cmd1 = m.viewport.Update(msg)
	m.input, cmd2 = m.input.Update(msg)
	return m, tea.Batch(cmd1, cmd2)
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.input.Value())
	if raw == "" {
		return m, nil
	}
	if strings.HasPrefix(raw, "/") {
		return m.handleSlashCommand(raw)
	}
	if m.busy {
		return m, nil // one turn at a time
	}

	m.input.Reset()
	if len(m.transcript) > 0 {
		m.appendLine("", "info")
	}
	m.appendLine("❯ "+raw, "user")

	m.busy = true
	m.turnStart = time.Now()
	ctx, cancel := context.WithCancel(m.rootCtx)
	m.cancelTurn = cancel

	query := raw
	runTurn := func() tea.Msg {
		defer cancel()
		res, err := m.agent.RunTurn(ctx, query)
		if err != nil {
			return TurnFailedMsg{Err: err}
		}
		return TurnDoneMsg{Result: res}
	}
	return m, tea.Batch(runTurn, m.spin.Tick)
}

func (m Model) handleSlashCommand(raw string) (tea.Model, tea.Cmd) {
	m.input.Reset()
	fields := strings.Fields(raw)

	switch fields[0] {
	case "/quit", "/exit":
		m.quitting = true
		return m, tea.Quit

	case "/clear":
		m.transcript = nil
		m.refreshViewport()

	case "/mode":
		m.appendLine("mode: "+m.agent.Selector().Describe(), "info")

	case "/switch":
		if len(fields) < 2 {
			m.appendLine("usage: /switch auto|primary|secondary|<backend>", "warn")
			break
		}
		if _, err := m.agent.Switch(fields[1]); err != nil {
			m.appendLine(err.Error(), "error")
			break
		}
		note := "mode: " + m.agent.Selector().Describe()
		if m.busy {
			note += " (takes effect next turn)"
		}
		m.appendLine(note, "info")

	case "/help":
		for _, line := range helpLines {
			m.appendLine(line, "info")
		}

	default:
		m.appendLine("unknown command: "+fields[0]+" (try /help)", "warn")
	}
	return m, nil
}

var helpLines = []string{
	"/mode            show the active backend mode",
	"/switch <mode>   set backend mode: auto, primary, secondary, or a backend name",
	"/clear           clear the transcript",
	"/quit            exit",
}

// appendToolResult splits multiline results and summarizes long ones.
func (m *Model) appendToolResult(msg ToolResultMsg) {
	style := "result"
	if msg.IsError {
		style = "error"
	}
	result := strings.TrimSpace(msg.Result)
	lines := strings.Split(result, "\n")
	if len(lines) > 8 {
		for _, l := range lines[:6] {
			m.appendLine("  "+strings.TrimSpace(l), style)
		}
		m.appendLine(fmt.Sprintf("  ... (%d more lines)", len(lines)-6), "info")
		return
	}
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			m.appendLine("  "+l, style)
		}
	}
}

func (m *Model) appendLine(text, style string) {
	m.transcript = append(m.transcript, chatLine{text: text, style: style})
	if len(m.transcript) > maxTranscriptLines {
		m.transcript = m.transcript[len(m.transcript)-maxTranscriptLines:]
	}
	m.refreshViewport()
}

// refreshViewport re-wraps and re-styles the transcript for the current
// width and scrolls to the bottom.
func (m *Model) refreshViewport() {
	w := m.viewport.Width
	if w <= 0 {
		w = 80
	}

	var b strings.Builder
	for _, line := range m.transcript {
		if line.text == "" {
			b.WriteString("\n")
			continue
		}
		st := lineStyle(line.style)
		for _, wl := range wrapText(line.text, w-2) {
			b.WriteString(st.Render(wl))
			b.WriteString("\n")
		}
	}
	m.viewport.SetContent(strings.TrimRight(b.String(), "\n"))
	m.viewport.GotoBottom()
}
