package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/HexSleeves/parasol/internal/agent"
	agerrors "github.com/HexSleeves/parasol/internal/errors"
)

// EventType represents the type of JSON output event.
type EventType string

const (
	// EventTurnStart is emitted when a query is accepted.
	EventTurnStart EventType = "turn_start"
	// EventTurnEnd is emitted when a turn produces its final answer.
	EventTurnEnd EventType = "turn_end"
	// EventLog carries one agent progress line (decision, tool call,
	// tool result, fallback).
	EventLog EventType = "log"
	// EventModeSwitch is emitted when the backend mode changes.
	EventModeSwitch EventType = "mode_switch"
	// EventError is emitted when a turn fails.
	EventError EventType = "error"
)

// TurnEvent carries the turn-level fields of an event.
type TurnEvent struct {
	Seq        int    `json:"seq"`
	Query      string `json:"query,omitempty"`
	Answer     string `json:"answer,omitempty"`
	Backend    string `json:"backend,omitempty"`
	Mode       string `json:"mode,omitempty"`
	UsedTool   bool   `json:"used_tool,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// ErrorEvent represents a turn failure.
type ErrorEvent struct {
	Message   string `json:"message"`
	Backend   string `json:"backend,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

// JSONEvent is the wrapper for all JSON output events.
type JSONEvent struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Turn      *TurnEvent  `json:"turn,omitempty"`
	Error     *ErrorEvent `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// JSONWriter serializes events as JSON lines, one event per line.
type JSONWriter struct {
	mu        sync.Mutex
	w         io.Writer
	turns     int
	maxOutput int // Maximum output length before truncation
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{
		w:         w,
		maxOutput: 10000, // Truncate very large lines at 10KB
	}
}

// SetMaxOutput sets the maximum output size before truncation.
func (jw *JSONWriter) SetMaxOutput(max int) {
	jw.maxOutput = max
}

// Turns returns the number of turns started so far.
func (jw *JSONWriter) Turns() int {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.turns
}

// writeEvent writes a single JSON event as a line.
func (jw *JSONWriter) writeEvent(event JSONEvent) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(jw.w, string(data))
	return err
}

// WriteTurnStart emits a turn start event and assigns the turn number.
func (jw *JSONWriter) WriteTurnStart(query, mode string) error {
	jw.mu.Lock()
	jw.turns++
	seq := jw.turns
	jw.mu.Unlock()

	event := JSONEvent{
		Type: EventTurnStart,
		Turn: &TurnEvent{
			Seq:   seq,
			Query: query,
			Mode:  mode,
		},
	}
	return jw.writeEvent(event)
}

// WriteTurnEnd emits the final answer for a completed turn.
func (jw *JSONWriter) WriteTurnEnd(query string, res *agent.TurnResult) error {
	event := JSONEvent{
		Type: EventTurnEnd,
		Turn: &TurnEvent{
			Seq:        jw.Turns(),
			Query:      query,
			Answer:     res.FinalAnswer,
			Backend:    res.Backend,
			UsedTool:   res.UsedTool,
			DurationMS: res.Duration.Milliseconds(),
		},
	}
	return jw.writeEvent(event)
}

// WriteLog forwards one agent progress line.
func (jw *JSONWriter) WriteLog(line string) error {
	event := JSONEvent{
		Type:    EventLog,
		Message: jw.truncate(line),
	}
	return jw.writeEvent(event)
}

// WriteModeSwitch emits a backend mode change.
func (jw *JSONWriter) WriteModeSwitch(from, to string) error {
	event := JSONEvent{
		Type:    EventModeSwitch,
		Message: fmt.Sprintf("%s -> %s", from, to),
		Data: map[string]interface{}{
			"from": from,
			"to":   to,
		},
	}
	return jw.writeEvent(event)
}

// WriteError emits a turn failure.
func (jw *JSONWriter) WriteError(err error, backend string) error {
	event := JSONEvent{
		Type: EventError,
		Turn: &TurnEvent{Seq: jw.Turns()},
		Error: &ErrorEvent{
			Message:   err.Error(),
			Backend:   backend,
			ErrorType: errorType(err),
		},
	}
	return jw.writeEvent(event)
}

func (jw *JSONWriter) truncate(s string) string {
	if len(s) > jw.maxOutput {
		return s[:jw.maxOutput] + "... [truncated]"
	}
	return s
}

// errorType maps a turn failure onto a stable name for scripting.
func errorType(err error) string {
	switch {
	case agerrors.IsAllBackendsUnavailable(err):
		return "all_backends_unavailable"
	case agerrors.IsBackendUnavailable(err):
		return "backend_unavailable"
	case agerrors.IsToolNotFound(err):
		return "tool_not_found"
	default:
		return "turn_failed"
	}
}

// LogWriter returns an io.Writer that forwards agent log lines as log
// events. Partial writes are buffered until a newline arrives, so it is
// safe to hand to log.New.
func (jw *JSONWriter) LogWriter() io.Writer {
	return &logForwarder{jw: jw}
}

type logForwarder struct {
	mu  sync.Mutex
	jw  *JSONWriter
	buf bytes.Buffer
}

func (f *logForwarder) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.buf.Write(p)
	for {
		line, err := f.buf.ReadString('\n')
		if err != nil {
			// Incomplete line; keep it for the next write.
			f.buf.WriteString(line)
			break
		}
		if line = strings.TrimRight(line, "\n"); line != "" {
			f.jw.WriteLog(line) //nolint:errcheck
		}
	}
	return len(p), nil
}
