package ai

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

const defaultAnthropicMaxTokens = 512

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicGenerator builds an Anthropic TextGenerator.
func NewAnthropicGenerator(apiKey, model string) (*AnthropicGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key required")
	}
	return &AnthropicGenerator{
		client: anthropic.NewClient(apiKey),
		model:  strings.TrimSpace(model),
	}, nil
}

// Generate implements TextGenerator using Anthropic.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(g.model),
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.UserPrompt)},
			},
		},
		System:    req.SystemPrompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("anthropic complete: %w", err)
	}
	if len(resp.Content) == 0 {
		return Completion{}, fmt.Errorf("empty response from anthropic")
	}
	text := strings.TrimSpace(resp.Content[0].GetText())
	if text == "" {
		return Completion{}, fmt.Errorf("empty response from anthropic")
	}
	reported := resp.Usage.InputTokens + resp.Usage.OutputTokens
	return Completion{Text: text, Tokens: usageOrEstimate(reported, req, text)}, nil
}
