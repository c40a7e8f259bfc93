package ai

import (
	"log/slog"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// EstimateTokens approximates the token count of s using the cl100k_base
// encoding. When the encoding cannot be loaded it falls back to ~4 chars/token.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, using char estimate", "err", err)
			return
		}
		encoding = enc
	})
	if encoding == nil {
		return len(s)/4 + 1
	}
	return len(encoding.Encode(s, nil, nil))
}
