// Package output selects and drives the presentation layer: an
// interactive TUI, styled plain text, JSON lines for scripting, or
// quiet mode that prints nothing but final answers.
package output

import (
	"fmt"
	"io"
	"os"
)

// Mode represents the output mode.
type Mode int

const (
	// ModeTUI is the interactive terminal UI mode.
	ModeTUI Mode = iota
	// ModePlain is the plain text log mode.
	ModePlain
	// ModeJSON is the structured JSON output mode.
	ModeJSON
	// ModeQuiet suppresses everything except final answers.
	ModeQuiet
)

// String returns the flag-style name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModePlain:
		return "plain"
	case ModeJSON:
		return "json"
	case ModeQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// Manager handles output based on the selected mode.
type Manager struct {
	mode       Mode
	jsonWriter *JSONWriter
	stdout     io.Writer
	stderr     io.Writer
}

// NewManager creates a new output manager.
func NewManager(mode Mode) *Manager {
	return &Manager{
		mode:   mode,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// NewManagerWithWriters creates a new output manager with custom writers (for testing).
func NewManagerWithWriters(mode Mode, stdout, stderr io.Writer) *Manager {
	return &Manager{
		mode:   mode,
		stdout: stdout,
		stderr: stderr,
	}
}

// Mode returns the current output mode.
func (m *Manager) Mode() Mode {
	return m.mode
}

// IsJSON returns true if JSON mode is enabled.
func (m *Manager) IsJSON() bool {
	return m.mode == ModeJSON
}

// IsTUI returns true if TUI mode is enabled.
func (m *Manager) IsTUI() bool {
	return m.mode == ModeTUI
}

// IsPlain returns true if plain mode is enabled.
func (m *Manager) IsPlain() bool {
	return m.mode == ModePlain
}

// IsQuiet returns true if quiet mode is enabled.
func (m *Manager) IsQuiet() bool {
	return m.mode == ModeQuiet
}

// SetJSONWriter sets the JSON writer (call before the first turn).
func (m *Manager) SetJSONWriter(jw *JSONWriter) {
	m.jsonWriter = jw
}

// JSONWriter returns the JSON writer (may be nil).
func (m *Manager) JSONWriter() *JSONWriter {
	return m.jsonWriter
}

// Stdout returns the stdout writer.
func (m *Manager) Stdout() io.Writer {
	return m.stdout
}

// Stderr returns the stderr writer.
func (m *Manager) Stderr() io.Writer {
	return m.stderr
}

// Answer prints a final answer to stdout. Plain and quiet modes both
// print the raw answer line; JSON mode carries answers inside turn_end
// events and the TUI renders them itself.
func (m *Manager) Answer(text string) {
	if m.mode == ModeJSON || m.mode == ModeTUI {
		return
	}
	fmt.Fprintln(m.stdout, text)
}

// Errorf prints an error line to stderr in plain and quiet modes. JSON
// mode reports errors through the JSON writer instead.
func (m *Manager) Errorf(format string, args ...interface{}) {
	if m.mode == ModeJSON || m.mode == ModeTUI {
		return
	}
	fmt.Fprintf(m.stderr, format+"\n", args...)
}
