package llm

import "fmt"

// ProviderConfig holds what's needed to construct an LLM client.
type ProviderConfig struct {
	Provider string // "deepseek", "qwen", or "anthropic"
	Model    string
	APIKey   string
	BaseURL  string // optional: override API base URL (for compatible endpoints)
}

// NewFromConfig creates the appropriate Client based on provider name.
// All providers support tool calling, either natively or through the
// embedded text protocol.
func NewFromConfig(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {

	case "deepseek":
		return NewDeepSeekClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil

	case "qwen", "dashscope":
		return NewQwenClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil

	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model), nil

	case "":
		return nil, fmt.Errorf("no LLM provider configured (set backends in parasol.json)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: deepseek, qwen, anthropic)", cfg.Provider)
	}
}
