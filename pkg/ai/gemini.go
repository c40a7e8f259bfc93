package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiGenerator calls the Gemini generateContent endpoint.
type GeminiGenerator struct {
	transport jsonTransport
	model     string
}

// NewGeminiGenerator builds a Gemini TextGenerator. The key is sent in the
// x-goog-api-key header so it never appears in request URLs.
func NewGeminiGenerator(baseURL, apiKey, model string) (*GeminiGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultGeminiBaseURL
	}
	t := newJSONTransport("gemini", baseURL, 30*time.Second)
	t.header.Set("x-goog-api-key", apiKey)
	t.errorMessage = func(body []byte) string {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		return e.Error.Message
	}
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	return &GeminiGenerator{transport: t, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (Completion, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.UserPrompt}}}},
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		body.GenerationConfig = &geminiConfig{MaxOutputTokens: req.MaxTokens, Temperature: req.Temperature}
	}

	var resp geminiResponse
	if err := g.transport.post(ctx, "/models/"+g.model+":generateContent", body, &resp); err != nil {
		return Completion{}, err
	}
	if len(resp.Candidates) == 0 {
		return Completion{}, errors.New("gemini: no candidates returned")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Completion{}, fmt.Errorf("gemini: empty candidate (finish reason %s)", resp.Candidates[0].FinishReason)
	}
	return Completion{Text: text, Tokens: usageOrEstimate(resp.UsageMetadata.TotalTokenCount, req, text)}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiConfig   `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}
