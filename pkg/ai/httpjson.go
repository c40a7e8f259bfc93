package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxErrorBody = 4 << 10

// APIError is a non-2xx reply from a provider's HTTP API.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (%d): %s", e.Provider, e.Status, e.Message)
}

// jsonTransport posts JSON to providers that have no Go SDK in use here.
type jsonTransport struct {
	provider string
	baseURL  string
	header   http.Header
	client   *http.Client
	// errorMessage pulls the provider's error text out of a failed body.
	errorMessage func(body []byte) string
}

func newJSONTransport(provider, baseURL string, timeout time.Duration) jsonTransport {
	return jsonTransport{
		provider: provider,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		header:   http.Header{},
		client:   &http.Client{Timeout: timeout},
	}
}

func (t jsonTransport) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", t.provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header = t.header.Clone()
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", t.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := ""
		if t.errorMessage != nil {
			msg = t.errorMessage(raw)
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Provider: t.provider, Status: resp.StatusCode, Message: msg}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", t.provider, err)
	}
	return nil
}
