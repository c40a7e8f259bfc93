// Package recommend writes the short verdict shown under a movie card.
package recommend

import (
	"context"
	"fmt"
	"strings"

	"bingehouse/internal/metrics"
	"bingehouse/internal/util"
	"bingehouse/pkg/ai"
	"bingehouse/pkg/domain"
)

const (
	maxLength       = 600
	minSentenceCut  = 200
	maxOutputTokens = 220
	similarMarker   = "Similar movies:"
)

const systemPrompt = `You are BingeHouse, a friendly movie critic. Write a short recommendation in exactly this shape:
"<Title>" (<Year>) <one or two sentences, 35 to 50 words, assessing the movie>. <one sentence, 20 to 30 words, on who will enjoy it and why>. Similar movies: <Title 1>, <Title 2>, <Title 3>.
Plain text only. No lists, headings or extra lines.`

// Result is a generated recommendation and the tokens spent on it.
type Result struct {
	Recommendation domain.Recommendation
	Tokens         int
	Fallback       bool
}

type Generator struct {
	gen ai.TextGenerator
}

// New returns a Generator. A nil gen always uses the genre fallback.
func New(gen ai.TextGenerator) *Generator {
	return &Generator{gen: gen}
}

// Generate never fails: model errors and empty output fall back to a
// template built from the movie's genre.
func (g *Generator) Generate(ctx context.Context, movie domain.Movie, mem *domain.ConversationMemory) Result {
	worth := domain.IsWorthWatching(movie.Rating)
	rec := domain.Recommendation{
		MovieID:       movie.ID,
		UserID:        movie.UserID,
		WorthWatching: worth,
	}
	if g.gen != nil {
		out, err := g.gen.Generate(ctx, ai.Request{
			SystemPrompt: systemPrompt,
			UserPrompt:   buildPrompt(movie, mem),
			MaxTokens:    maxOutputTokens,
			Temperature:  0.7,
		})
		if err == nil {
			if text := normalize(out.Text, movie); text != "" {
				rec.Recommendation = text
				metrics.RecommendationsTotal.WithLabelValues("generated").Inc()
				return Result{Recommendation: rec, Tokens: out.Tokens}
			}
			err = fmt.Errorf("empty completion")
		}
		util.LoggerFromContext(ctx).Warn("recommendation generation failed, using fallback",
			"title", movie.Title, "err", err)
	}
	rec.Recommendation = Fallback(movie)
	metrics.RecommendationsTotal.WithLabelValues("fallback").Inc()
	return Result{Recommendation: rec, Fallback: true}
}

func buildPrompt(movie domain.Movie, mem *domain.ConversationMemory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Movie: %q (%s)\n", movie.Title, movie.Year)
	if movie.Genre != "" {
		fmt.Fprintf(&b, "Genre: %s\n", movie.Genre)
	}
	if movie.Rating != "" {
		fmt.Fprintf(&b, "Rating: %s/10\n", movie.Rating)
	}
	if movie.Director != "" {
		fmt.Fprintf(&b, "Director: %s\n", movie.Director)
	}
	if movie.Plot != "" && !strings.EqualFold(movie.Plot, "N/A") {
		fmt.Fprintf(&b, "Plot: %s\n", movie.Plot)
	}
	if mem != nil {
		if len(mem.Preferences) > 0 {
			fmt.Fprintf(&b, "User enjoys: %s\n", strings.Join(mem.Preferences, ", "))
		}
		if last, ok := mem.LastMovie(); ok && !strings.EqualFold(last.Title, movie.Title) {
			fmt.Fprintf(&b, "Previously discussed: %s\n", last.Title)
		}
	}
	return b.String()
}

// normalize trims the completion, adds the quoted title header when the model
// left it out, keeps one "Similar movies:" clause and enforces the length cap.
func normalize(text string, movie domain.Movie) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	if !strings.HasPrefix(text, `"`) {
		header := fmt.Sprintf("%q", movie.Title)
		if movie.Year != "" {
			header += " (" + movie.Year + ")"
		}
		text = header + " " + text
	}
	if first := strings.Index(text, similarMarker); first >= 0 {
		rest := text[first+len(similarMarker):]
		if second := strings.Index(rest, similarMarker); second >= 0 {
			text = strings.TrimSpace(text[:first+len(similarMarker)+second])
		}
	}
	return Truncate(text)
}

// Truncate caps text at 600 characters, cutting at the last full stop past
// the 200th character, or hard-cutting with "..." when there is none.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	head := runes[:maxLength]
	for i := len(head) - 1; i >= minSentenceCut; i-- {
		if head[i] == '.' {
			return string(head[:i+1])
		}
	}
	return strings.TrimSpace(string(runes[:maxLength-3])) + "..."
}
