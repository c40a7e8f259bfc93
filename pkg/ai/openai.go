package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIMaxTokens = 512

// OpenAIGenerator calls the OpenAI chat completions API. With a base URL it
// targets any OpenAI-compatible endpoint (vLLM, LiteLLM, LocalAI, OpenRouter, ...).
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator builds an OpenAI TextGenerator.
// baseURL should include the /v1 prefix, e.g. "http://localhost:8000/v1".
// apiKey can be empty for local models that do not require authentication.
func NewOpenAIGenerator(baseURL, apiKey, model string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  strings.TrimSpace(model),
	}
}

// Generate implements TextGenerator using the chat completions API.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (Completion, error) {
	if g.model == "" {
		return Completion{}, fmt.Errorf("openai generation model required")
	}
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultOpenAIMaxTokens
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return Completion{}, fmt.Errorf("openai complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("empty response from openai api")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Completion{}, fmt.Errorf("empty response from openai api")
	}
	return Completion{Text: text, Tokens: usageOrEstimate(resp.Usage.TotalTokens, req, text)}, nil
}
