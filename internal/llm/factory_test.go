package llm

import (
	"strings"
	"testing"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantName string
	}{
		{"deepseek", "deepseek", "deepseek"},
		{"qwen", "qwen", "qwen"},
		{"dashscope alias", "dashscope", "qwen"},
		{"anthropic", "anthropic", "anthropic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewFromConfig(ProviderConfig{Provider: tt.provider, APIKey: "test-key"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", client.Name(), tt.wantName)
			}
		})
	}
}

func TestNewFromConfig_Unknown(t *testing.T) {
	_, err := NewFromConfig(ProviderConfig{Provider: "gpt5-turbo-max"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "unknown LLM provider") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromConfig_Empty(t *testing.T) {
	_, err := NewFromConfig(ProviderConfig{})
	if err == nil {
		t.Fatal("expected error for empty provider")
	}
	if !strings.Contains(err.Error(), "no LLM provider configured") {
		t.Errorf("unexpected error: %v", err)
	}
}
