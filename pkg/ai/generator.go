package ai

import (
	"context"
	"fmt"
	"strings"
)

// Provider names accepted by NewGenerator.
const (
	ProviderOpenAI       = "openai"
	ProviderOpenAICompat = "openai-compat"
	ProviderAnthropic    = "anthropic"
	ProviderGemini       = "gemini"
	ProviderOllama       = "ollama"
)

// Request is a single completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	// MaxTokens bounds the output length. Zero uses the provider default.
	MaxTokens   int
	Temperature float64
}

// Completion is the generated text plus the total tokens billed for the call.
type Completion struct {
	Text   string
	Tokens int
}

// TextGenerator generates text from a system prompt and user prompt.
// All LLM providers (OpenAI, Anthropic, Gemini, Ollama) implement this interface.
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (Completion, error)
}

// GeneratorConfig selects and configures a provider.
type GeneratorConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
}

// NewGenerator constructs the TextGenerator for the configured provider.
func NewGenerator(cfg GeneratorConfig) (TextGenerator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("generation model required")
	}
	switch provider {
	case ProviderOpenAI, ProviderOpenAICompat:
		if provider == ProviderOpenAICompat && strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("openai-compat base URL required")
		}
		return NewOpenAIGenerator(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case ProviderAnthropic:
		return NewAnthropicGenerator(cfg.APIKey, cfg.Model)
	case ProviderGemini:
		return NewGeminiGenerator(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case ProviderOllama:
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", provider)
	}
}

// usageOrEstimate prefers provider-reported usage and falls back to a local estimate.
func usageOrEstimate(reported int, req Request, text string) int {
	if reported > 0 {
		return reported
	}
	return EstimateTokens(req.SystemPrompt) + EstimateTokens(req.UserPrompt) + EstimateTokens(text)
}
