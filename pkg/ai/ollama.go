package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const defaultOllamaBaseURL = "http://127.0.0.1:11434"

// OllamaGenerator calls a local Ollama server through /api/chat.
type OllamaGenerator struct {
	transport jsonTransport
	model     string
}

// NewOllamaGenerator builds an Ollama TextGenerator. Local models can be
// slow to load, hence the long timeout.
func NewOllamaGenerator(baseURL, model string) *OllamaGenerator {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultOllamaBaseURL
	}
	t := newJSONTransport("ollama", baseURL, 60*time.Second)
	t.errorMessage = func(body []byte) string {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		return e.Error
	}
	return &OllamaGenerator{transport: t, model: strings.TrimSpace(model)}
}

func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (Completion, error) {
	messages := make([]ollamaMessage, 0, 2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: req.UserPrompt})

	body := ollamaChatRequest{Model: g.model, Messages: messages}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		body.Options = &ollamaOptions{NumPredict: req.MaxTokens, Temperature: req.Temperature}
	}

	var resp ollamaChatResponse
	if err := g.transport.post(ctx, "/api/chat", body, &resp); err != nil {
		return Completion{}, err
	}
	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return Completion{}, errors.New("ollama: empty response")
	}
	return Completion{Text: text, Tokens: usageOrEstimate(resp.PromptEvalCount+resp.EvalCount, req, text)}, nil
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         ollamaMessage `json:"message"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}
