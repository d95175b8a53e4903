package llm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	agerrors "github.com/HexSleeves/parasol/internal/errors"
)

// DeepSeekClient implements Client for the DeepSeek API through the OpenAI
// SDK. DeepSeek exposes an OpenAI-compatible endpoint, so the SDK works
// unchanged with a different base URL.
type DeepSeekClient struct {
	client *openai.Client
	model  string
}

// NewDeepSeekClient creates a client for the DeepSeek API.
// If apiKey is empty, it reads DEEPSEEK_API_KEY from the environment.
// If baseURL is empty, it defaults to https://api.deepseek.com.
func NewDeepSeekClient(apiKey, model, baseURL string) *DeepSeekClient {
	if apiKey == "" {
		apiKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	if model == "" {
		model = "deepseek-chat"
	}
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
	}

	// Retry policy lives at the call site, not inside the SDK.
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(30 * time.Second),
		option.WithMaxRetries(0),
	}
	client := openai.NewClient(opts...)
	return &DeepSeekClient{client: &client, model: model}
}

func (c *DeepSeekClient) Name() string { return "deepseek" }

func (c *DeepSeekClient) Decide(ctx context.Context, history []Message, tools []ToolDef) (*Decision, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    c.renderMessages(history),
		Temperature: openai.Float(defaultTemperature),
		MaxTokens:   openai.Int(defaultMaxTokens),
	}
	if len(tools) > 0 {
		params.Tools = toDeepSeekTools(tools)
	}

	resp, err := c.complete(ctx, params)
	if err != nil {
		return nil, err
	}

	msg := resp.Choices[0].Message
	decision := &Decision{
		Text:  msg.Content,
		Model: resp.Model,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}
	if decision.Model == "" {
		decision.Model = c.model
	}

	// Native tool call wins; at most one invocation per turn, extras dropped.
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
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
		return nil, fmt.Errorf("deepseek: %w", err)
	}
	if found {
		decision.Kind = DecideCallTool
		decision.Call = call
		return decision, nil
	}

	decision.Kind = DecideDirect
	return decision, nil
}

func (c *DeepSeekClient) Finalize(ctx context.Context, history []Message) (string, error) {
	resp, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    c.renderMessages(history),
		Temperature: openai.Float(defaultTemperature),
		MaxTokens:   openai.Int(defaultMaxTokens),
	})
	if err != nil {
		return "", err
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("deepseek: empty finalize response")
	}
	return content, nil
}

// complete issues the request and maps failures onto the error taxonomy:
// transport errors and auth/quota/server statuses become
// BackendUnavailableError, caller bugs stay plain errors.
func (c *DeepSeekClient) complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var apiErr *openai.Error
		if stderrors.As(err, &apiErr) {
			if unavailableStatus(apiErr.StatusCode) {
				return nil, agerrors.NewBackendUnavailable(c.Name(), err)
			}
			return nil, fmt.Errorf("deepseek: %w", err)
		}
		// No structured API error means the request never got a response:
		// DNS failure, refused connection, TLS, timeout.
		return nil, agerrors.NewBackendUnavailable(c.Name(), err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("deepseek: no choices in response")
	}
	return resp, nil
}

func (c *DeepSeekClient) renderMessages(history []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))

		case RoleUser:
			out = append(out, openai.UserMessage(m.Content))

		case RoleAssistant:
			asst := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				asst.Content.OfString = openai.String(m.Content)
			}
			if m.ToolCall != nil && m.ToolCall.ID != "" {
				asst.ToolCalls = []openai.ChatCompletionMessageToolCallParam{{
					ID: m.ToolCall.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      m.ToolCall.Name,
						Arguments: string(m.ToolCall.Arguments),
					},
				}}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})

		case RoleTool:
			if m.ToolCallID != "" {
				out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
			} else {
				out = append(out, openai.UserMessage(EmbeddedResultPrefix+m.Content))
			}
		}
	}
	return out
}

func toDeepSeekTools(tools []ToolDef) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		out[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  shared.FunctionParameters(t.InputSchema),
			},
		}
	}
	return out
}
