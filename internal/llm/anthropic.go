package llm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	agerrors "github.com/HexSleeves/parasol/internal/errors"
)

// AnthropicClient wraps the Anthropic SDK. Anthropic models use native tool
// calling, so the embedded text protocol only matters as a fallback parse.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a client for the Anthropic API. An empty apiKey
// lets the SDK fall back to the ANTHROPIC_API_KEY environment variable.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	opts := []option.RequestOption{option.WithRequestTimeout(30 * time.Second)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	c := anthropic.NewClient(opts...)
	return &AnthropicClient{
		client: &c,
		model:  model,
	}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

func (c *AnthropicClient) Decide(ctx context.Context, history []Message, tools []ToolDef) (*Decision, error) {
	// Convert tool definitions to Anthropic SDK params.
	apiTools := make([]anthropic.ToolUnionParam, len(tools))
	for i, td := range tools {
		props, _ := td.InputSchema["properties"].(map[string]interface{})
		schema := anthropic.ToolInputSchemaParam{
			Properties: props,
		}
		if req, ok := td.InputSchema["required"].([]interface{}); ok {
			reqStrings := make([]string, len(req))
			for j, r := range req {
				reqStrings[j], _ = r.(string)
			}
			schema.Required = reqStrings
		}
		t := anthropic.ToolUnionParamOfTool(schema, td.Name)
		if td.Description != "" {
			t.OfTool.Description = param.NewOpt(td.Description)
		}
		apiTools[i] = t
	}

	system, apiMessages := toAnthropicMessages(history)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   defaultMaxTokens,
		Temperature: param.NewOpt(defaultTemperature),
		Messages:    apiMessages,
		Tools:       apiTools,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, c.mapError(ctx, err)
	}

	decision := &Decision{
		Model: string(resp.Model),
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}

	var text strings.Builder
	var call *ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			if call != nil {
				continue // at most one invocation per turn, extras dropped
			}
			toolUse := block.AsToolUse()
			call = &ToolCall{
				ID:        toolUse.ID,
				Name:      toolUse.Name,
				Arguments: json.RawMessage(toolUse.Input),
			}
		}
	}
	decision.Text = text.String()

	if call != nil {
		decision.Kind = DecideCallTool
		decision.Call = call
		return decision, nil
	}

	embedded, found, err := ParseEmbeddedCall(decision.Text)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	if found {
		decision.Kind = DecideCallTool
		decision.Call = embedded
		return decision, nil
	}

	decision.Kind = DecideDirect
	return decision, nil
}

func (c *AnthropicClient) Finalize(ctx context.Context, history []Message) (string, error) {
	system, apiMessages := toAnthropicMessages(history)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   defaultMaxTokens,
		Temperature: param.NewOpt(defaultTemperature),
		Messages:    apiMessages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", c.mapError(ctx, err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("anthropic: empty finalize response")
	}
	return out.String(), nil
}

func (c *AnthropicClient) mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *anthropic.Error
	if stderrors.As(err, &apiErr) {
		if unavailableStatus(apiErr.StatusCode) {
			return agerrors.NewBackendUnavailable(c.Name(), err)
		}
		return fmt.Errorf("anthropic: %w", err)
	}
	return agerrors.NewBackendUnavailable(c.Name(), err)
}

// toAnthropicMessages converts history to SDK params, pulling system
// messages into the system prompt. Consecutive same-role messages are
// merged into one message with multiple blocks since the API wants
// alternating roles; a tool result plus a follow-up instruction become one
// user message.
func toAnthropicMessages(history []Message) (string, []anthropic.MessageParam) {
	var system []string
	var out []anthropic.MessageParam

	push := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, m := range history {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)

		case RoleUser:
			push(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(m.Content))

		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			if m.ToolCall != nil && m.ToolCall.ID != "" {
				var inputMap map[string]interface{}
				_ = json.Unmarshal(m.ToolCall.Arguments, &inputMap)
				blocks = append(blocks, anthropic.NewToolUseBlock(m.ToolCall.ID, inputMap, m.ToolCall.Name))
			}
			push(anthropic.MessageParamRoleAssistant, blocks...)

		case RoleTool:
			if m.ToolCallID != "" {
				push(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
			} else {
				push(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(EmbeddedResultPrefix+m.Content))
			}
		}
	}

	return strings.Join(system, "\n\n"), out
}
