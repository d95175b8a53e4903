package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/HexSleeves/parasol/internal/errors"
)

// CallMarker prefixes an embedded tool request in a plain text reply.
// Models without native function calling are prompted to emit a single
// line in the form:
//
//	FUNCTION_CALL: {"name": "fetch_weather", "arguments": {"city": "深圳"}}
const CallMarker = "FUNCTION_CALL:"

// ParseEmbeddedCall scans an assistant reply for the embedded call marker.
// It returns (nil, false, nil) when no marker is present, the parsed call
// when the payload is valid, and ErrUnparseableToolCall when the marker is
// present but the payload cannot be decoded. Only the first line after the
// marker is considered.
//
// Parsed calls carry no ID since the protocol has none.
func ParseEmbeddedCall(text string) (*ToolCall, bool, error) {
	idx := strings.Index(text, CallMarker)
	if idx < 0 {
		return nil, false, nil
	}

	payload := strings.TrimSpace(text[idx+len(CallMarker):])
	if nl := strings.IndexByte(payload, '\n'); nl >= 0 {
		payload = strings.TrimSpace(payload[:nl])
	}

	if !gjson.Valid(payload) {
		return nil, true, fmt.Errorf("invalid call payload %q: %w", payload, errors.ErrUnparseableToolCall)
	}

	name := gjson.Get(payload, "name")
	if name.Type != gjson.String || name.String() == "" {
		return nil, true, fmt.Errorf("call payload missing tool name: %w", errors.ErrUnparseableToolCall)
	}

	args := json.RawMessage(`{}`)
	if a := gjson.Get(payload, "arguments"); a.Exists() {
		args = json.RawMessage(a.Raw)
	}

	return &ToolCall{Name: name.String(), Arguments: args}, true, nil
}
