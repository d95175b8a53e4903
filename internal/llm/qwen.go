package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	agerrors "github.com/HexSleeves/parasol/internal/errors"
)

// QwenClient implements Client for Qwen models served through the DashScope
// OpenAI-compatible endpoint. The wire format is the standard chat
// completions API, so the same client works against any compatible endpoint.
type QwenClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// Chat completions request/response types

type qwenRequest struct {
	Model       string        `json:"model"`
	Messages    []qwenMessage `json:"messages"`
	Tools       []qwenTool    `json:"tools,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type qwenMessage struct {
	Role       string         `json:"role"`
	Content    any            `json:"content,omitempty"` // string
	ToolCalls  []qwenToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type qwenTool struct {
	Type     string       `json:"type"` // "function"
	Function qwenFunction `json:"function"`
}

type qwenFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type qwenToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function qwenCallFunction `json:"function"`
}

type qwenCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

type qwenResponse struct {
	Choices []qwenChoice `json:"choices"`
	Error   *qwenError   `json:"error,omitempty"`
	Usage   *qwenUsage   `json:"usage,omitempty"`
	Model   string       `json:"model,omitempty"`
}

type qwenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type qwenChoice struct {
	Message      qwenMessage `json:"message"`
	FinishReason string      `json:"finish_reason"` // "stop", "tool_calls", "length"
}

type qwenError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewQwenClient creates a client for the DashScope compatible-mode API.
// If apiKey is empty, it reads DASHSCOPE_API_KEY from the environment.
// If baseURL is empty, it defaults to the DashScope compatible-mode endpoint.
func NewQwenClient(apiKey, model, baseURL string) *QwenClient {
	if apiKey == "" {
		apiKey = os.Getenv("DASHSCOPE_API_KEY")
	}
	if model == "" {
		model = "qwen-plus"
	}
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	}
	// Trim trailing slash
	baseURL = strings.TrimRight(baseURL, "/")

	return &QwenClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *QwenClient) Name() string { return "qwen" }

func (c *QwenClient) Decide(ctx context.Context, history []Message, tools []ToolDef) (*Decision, error) {
	apiMessages := c.renderMessages(history)

	var apiTools []qwenTool
	for _, td := range tools {
		apiTools = append(apiTools, qwenTool{
			Type: "function",
			Function: qwenFunction{
				Name:        td.Name,
				Description: td.Description,
				Parameters:  td.InputSchema,
			},
		})
	}

	temp := defaultTemperature
	resp, err := c.doRequest(ctx, qwenRequest{
		Model:       c.model,
		Messages:    apiMessages,
		Tools:       apiTools,
		MaxTokens:   defaultMaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("qwen: no choices in response")
	}
	choice := resp.Choices[0]

	decision := &Decision{Model: resp.Model}
	if decision.Model == "" {
		decision.Model = c.model
	}
	if resp.Usage != nil {
		decision.Usage = Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	if text, ok := choice.Message.Content.(string); ok {
		decision.Text = text
	}

	// Native tool call wins; at most one invocation per turn, extras dropped.
	if len(choice.Message.ToolCalls) > 0 {
		tc := choice.Message.ToolCalls[0]
		decision.Kind = DecideCallTool
		decision.Call = &ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		}
		return decision, nil
	}

	// Fall back to the embedded text protocol.
	call, found, err := ParseEmbeddedCall(decision.Text)
	if err != nil {
		return nil, fmt.Errorf("qwen: %w", err)
	}
	if found {
		decision.Kind = DecideCallTool
		decision.Call = call
		return decision, nil
	}

	decision.Kind = DecideDirect
	return decision, nil
}

func (c *QwenClient) Finalize(ctx context.Context, history []Message) (string, error) {
	temp := defaultTemperature
	resp, err := c.doRequest(ctx, qwenRequest{
		Model:       c.model,
		Messages:    c.renderMessages(history),
		MaxTokens:   defaultMaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("qwen: no choices in response")
	}

	if text, ok := resp.Choices[0].Message.Content.(string); ok {
		return text, nil
	}
	return "", fmt.Errorf("qwen: empty finalize response")
}

// renderMessages maps conversation history onto the wire format. Tool
// exchanges with native call IDs use tool_calls and role=tool messages;
// exchanges from the embedded protocol stay plain text, mirroring what the
// model actually emitted.
func (c *QwenClient) renderMessages(history []Message) []qwenMessage {
	var apiMessages []qwenMessage
	for _, m := range history {
		switch m.Role {
		case RoleSystem:
			apiMessages = append(apiMessages, qwenMessage{Role: "system", Content: m.Content})

		case RoleUser:
			apiMessages = append(apiMessages, qwenMessage{Role: "user", Content: m.Content})

		case RoleAssistant:
			amsg := qwenMessage{Role: "assistant"}
			if m.Content != "" {
				amsg.Content = m.Content
			}
			if m.ToolCall != nil && m.ToolCall.ID != "" {
				amsg.ToolCalls = []qwenToolCall{{
					ID:   m.ToolCall.ID,
					Type: "function",
					Function: qwenCallFunction{
						Name:      m.ToolCall.Name,
						Arguments: string(m.ToolCall.Arguments),
					},
				}}
			}
			apiMessages = append(apiMessages, amsg)

		case RoleTool:
			if m.ToolCallID != "" {
				apiMessages = append(apiMessages, qwenMessage{
					Role:       "tool",
					Content:    m.Content,
					ToolCallID: m.ToolCallID,
				})
			} else {
				apiMessages = append(apiMessages, qwenMessage{
					Role:    "user",
					Content: EmbeddedResultPrefix + m.Content,
				})
			}
		}
	}
	return apiMessages
}

func (c *QwenClient) doRequest(ctx context.Context, body qwenRequest) (*qwenResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("qwen: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("qwen: create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, agerrors.NewBackendUnavailable(c.Name(), err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, agerrors.NewBackendUnavailable(c.Name(), fmt.Errorf("read response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("API error %d: %s", httpResp.StatusCode, string(respBody))
		if unavailableStatus(httpResp.StatusCode) {
			return nil, agerrors.NewBackendUnavailable(c.Name(), apiErr)
		}
		return nil, fmt.Errorf("qwen: %w", apiErr)
	}

	var resp qwenResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("qwen: unmarshal response: %w", err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("qwen: %s: %s", resp.Error.Type, resp.Error.Message)
	}

	return &resp, nil
}
