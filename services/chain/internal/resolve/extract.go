package resolve

import (
	"context"
	"fmt"
	"strings"

	"bingehouse/pkg/ai"
	"bingehouse/pkg/domain"
	"bingehouse/services/chain/internal/titles"
)

// Sentinel is a fixed non-title label the extractor returns to signal that a
// message is not a lookup.
type Sentinel string

const (
	SentinelComparison            Sentinel = "COMPARISON_REQUEST"
	SentinelSimpleResponse        Sentinel = "SIMPLE_RESPONSE"
	SentinelPreference            Sentinel = "PREFERENCE_STATEMENT"
	SentinelGeneralRecommendation Sentinel = "GENERAL_RECOMMENDATION"
	SentinelSimilarRecommendation Sentinel = "SIMILAR_RECOMMENDATION"
	SentinelFollowUp              Sentinel = "FOLLOW_UP"
)

var sentinels = []Sentinel{
	SentinelComparison,
	SentinelSimpleResponse,
	SentinelPreference,
	SentinelGeneralRecommendation,
	SentinelSimilarRecommendation,
	SentinelFollowUp,
}

// ParseSentinel matches s against the sentinel labels, ignoring case and
// surrounding punctuation.
func ParseSentinel(s string) (Sentinel, bool) {
	s = strings.ToUpper(strings.Trim(titles.Clean(s), "[]<>*_ "))
	for _, sentinel := range sentinels {
		if s == string(sentinel) {
			return sentinel, true
		}
	}
	return "", false
}

type ExtractRequest struct {
	Query        string
	Turns        []domain.ConversationMessage
	RecentTitles []string
}

// Extraction holds either a title or a sentinel, never both.
type Extraction struct {
	Title    string
	Sentinel Sentinel
	Tokens   int
}

// Extractor finds the movie title a message refers to.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (Extraction, error)
}

// ModelExtractor asks a text generator for the title.
type ModelExtractor struct {
	gen ai.TextGenerator
}

func NewModelExtractor(gen ai.TextGenerator) *ModelExtractor {
	return &ModelExtractor{gen: gen}
}

const extractionSystemPrompt = `You extract movie titles from chat messages for a movie recommendation assistant.
Reply with exactly one line and nothing else.
If the message asks about one specific movie, reply with its title. Keep any year or actor the user gave, e.g. "Oldboy 2003" or "Heat with Al Pacino". Resolve references such as "the sequel" or "that movie" using the recent conversation.
Otherwise reply with one of these labels:
COMPARISON_REQUEST - the user compares two or more movies
SIMPLE_RESPONSE - a bare yes, no, thanks or similar
PREFERENCE_STATEMENT - the user states what they like or dislike
GENERAL_RECOMMENDATION - the user wants suggestions without naming a movie
SIMILAR_RECOMMENDATION - the user wants movies similar to one already discussed
FOLLOW_UP - a follow-up question about the movie already being discussed`

// Extract implements Extractor.
func (e *ModelExtractor) Extract(ctx context.Context, req ExtractRequest) (Extraction, error) {
	completion, err := e.gen.Generate(ctx, ai.Request{
		SystemPrompt: extractionSystemPrompt,
		UserPrompt:   buildExtractionPrompt(req),
		MaxTokens:    40,
		Temperature:  0,
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("extract title: %w", err)
	}
	out := Extraction{Tokens: completion.Tokens}
	line, _, _ := strings.Cut(strings.TrimSpace(completion.Text), "\n")
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "Title:"))
	if sentinel, ok := ParseSentinel(line); ok {
		out.Sentinel = sentinel
		return out, nil
	}
	switch strings.ToUpper(titles.Clean(line)) {
	case "", "NONE", "UNKNOWN", "N/A":
		return out, nil
	}
	out.Title = titles.Clean(line)
	return out, nil
}

func buildExtractionPrompt(req ExtractRequest) string {
	var b strings.Builder
	if len(req.Turns) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range req.Turns {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
		}
		b.WriteString("\n")
	}
	if len(req.RecentTitles) > 0 {
		fmt.Fprintf(&b, "Recently discussed movies: %s\n\n", strings.Join(req.RecentTitles, ", "))
	}
	fmt.Fprintf(&b, "Message: %s", strings.TrimSpace(req.Query))
	return b.String()
}
