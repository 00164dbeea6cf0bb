package factory

import (
	"testing"

	"github.com/ilkoid/serape-ai/pkg/config"
)

// TestNewLLMProviderKnown checks that all OpenAI-compatible providers resolve.
func TestNewLLMProviderKnown(t *testing.T) {
	for _, provider := range []string{"openai", "openrouter", "deepseek", "zai"} {
		p, err := NewLLMProvider(config.ModelDef{
			Provider:  provider,
			ModelName: "test-model",
			APIKey:    "sk-test",
		})
		if err != nil {
			t.Errorf("provider %q: unexpected error: %v", provider, err)
		}
		if p == nil {
			t.Errorf("provider %q: expected non-nil provider", provider)
		}
	}
}

// TestNewLLMProviderUnknown checks rejection of unknown providers.
func TestNewLLMProviderUnknown(t *testing.T) {
	if _, err := NewLLMProvider(config.ModelDef{Provider: "anthropic-carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
