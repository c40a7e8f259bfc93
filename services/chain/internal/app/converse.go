package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"bingehouse/internal/util"
	"bingehouse/pkg/ai"
	"bingehouse/pkg/domain"
	"bingehouse/services/chain/internal/classify"
	"bingehouse/services/chain/internal/recommend"
	"bingehouse/services/chain/internal/resolve"
)

const converseSystemPrompt = `You are BingeHouse, a warm and concise movie buddy in a chat app.
Answer in at most three short sentences of plain text.
When you suggest movies, name real titles. Never invent ratings.
If the user seems to want details about one movie, invite them to name it so you can look it up.`

var (
	negativeRe    = regexp.MustCompile(`(?i)^\s*(?:no|nope|nah|not really|no thanks)\b`)
	sequelWordsRe = regexp.MustCompile(`(?i)\b(?:sequel|prequel|next one|part \d|follow[- ]up)\b`)
	otherWordsRe  = regexp.MustCompile(`(?i)\b(?:different|another|other|else)\b`)
)

var kindHints = map[classify.Kind]string{
	classify.KindComparison:     "The user is comparing movies. Give a balanced take and ask which one they want a full verdict on.",
	classify.KindSimpleResponse: "The user replied briefly. Acknowledge it and keep the conversation going.",
	classify.KindPreference:     "The user shared their taste. Acknowledge it and suggest two or three fitting movies.",
	classify.KindRecommendation: "The user wants recommendations. Suggest three movies that fit their taste.",
	classify.KindFollowUp:       "The user asks a follow-up about the last movie discussed. Answer about that movie.",
	classify.KindSmallTalk:      "The user is making small talk. Reply briefly and offer to look up a movie.",
}

// sentinelKinds maps extractor labels to the reply they need.
var sentinelKinds = map[resolve.Sentinel]classify.Kind{
	resolve.SentinelComparison:            classify.KindComparison,
	resolve.SentinelSimpleResponse:        classify.KindSimpleResponse,
	resolve.SentinelPreference:            classify.KindPreference,
	resolve.SentinelGeneralRecommendation: classify.KindRecommendation,
	resolve.SentinelSimilarRecommendation: classify.KindRecommendation,
	resolve.SentinelFollowUp:              classify.KindFollowUp,
}

// converse answers a general query. Generation failures fall back to a
// canned reply for the kind.
func (a *App) converse(ctx context.Context, query string, kind classify.Kind, similar bool, mem *domain.ConversationMemory) (string, int) {
	if a.generator != nil {
		out, err := a.generator.Generate(ctx, ai.Request{
			SystemPrompt: converseSystemPrompt,
			UserPrompt:   conversePrompt(query, kind, similar, mem),
			MaxTokens:    200,
			Temperature:  0.7,
		})
		if err == nil && strings.TrimSpace(out.Text) != "" {
			return strings.TrimSpace(out.Text), out.Tokens
		}
		if err == nil {
			err = fmt.Errorf("empty completion")
		}
		util.LoggerFromContext(ctx).Warn("conversation reply failed, using fallback", "kind", kind, "err", err)
	}
	return fallbackReply(query, kind, similar, mem), 0
}

func conversePrompt(query string, kind classify.Kind, similar bool, mem *domain.ConversationMemory) string {
	var b strings.Builder
	if hint, ok := kindHints[kind]; ok {
		b.WriteString(hint)
		b.WriteString("\n")
	}
	last, hasLast := mem.LastMovie()
	if similar && hasLast {
		fmt.Fprintf(&b, "Suggest movies similar to %q.\n", last.Title)
	}
	if hasLast {
		fmt.Fprintf(&b, "Last movie discussed: %s", last.Title)
		if last.Year != "" {
			fmt.Fprintf(&b, " (%s)", last.Year)
		}
		if last.Rating != "" {
			fmt.Fprintf(&b, ", rated %s/10", last.Rating)
		}
		b.WriteString("\n")
	}
	if mem != nil && len(mem.Preferences) > 0 {
		fmt.Fprintf(&b, "User enjoys: %s\n", strings.Join(mem.Preferences, ", "))
	}
	if turns := mem.RecentMessages(4); len(turns) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range turns {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
		}
	}
	fmt.Fprintf(&b, "User: %s\n", query)
	return b.String()
}

func fallbackReply(query string, kind classify.Kind, similar bool, mem *domain.ConversationMemory) string {
	last, hasLast := mem.LastMovie()
	switch kind {
	case classify.KindComparison:
		return "Both have their fans! Name the one you want my full verdict on first and I'll look it up."
	case classify.KindSimpleResponse:
		if negativeRe.MatchString(query) {
			return "No problem. Tell me another movie you're curious about."
		}
		if hasLast {
			return fmt.Sprintf("Great! Want a few more picks in the spirit of %s?", last.Title)
		}
		return "Great! Name a movie and I'll tell you whether it's worth watching."
	case classify.KindPreference:
		if mem != nil && len(mem.Preferences) > 0 {
			pref := mem.Preferences[len(mem.Preferences)-1]
			return fmt.Sprintf("Noted, you're into %s. You might enjoy %s.",
				strings.ToLower(pref), joinTitles(recommend.Examples(pref, "")))
		}
		return "Noted! Name a movie and I'll tell you if it fits your taste."
	case classify.KindRecommendation:
		if hasLast {
			return fmt.Sprintf("If you liked %s, try %s.", last.Title, joinTitles(recommend.Examples(last.Genre, last.Title)))
		}
		if mem != nil && len(mem.Preferences) > 0 {
			pref := mem.Preferences[len(mem.Preferences)-1]
			return fmt.Sprintf("For %s fans I'd start with %s.", strings.ToLower(pref), joinTitles(recommend.Examples(pref, "")))
		}
		return fmt.Sprintf("A few crowd favorites to start with: %s.", joinTitles(recommend.Examples("", "")))
	case classify.KindFollowUp:
		if hasLast {
			return fmt.Sprintf("Happy to say more about %s. Ask me about its story, cast or whether it's worth your time.", last.Title)
		}
		return "Which movie do you mean? Give me the title and I'll look it up."
	default:
		return "Hi! I'm BingeHouse. Ask me about any movie and I'll tell you whether it's worth watching."
	}
}

// clarification asks for a title when none could be resolved.
func clarification(query string, mem *domain.ConversationMemory) string {
	last, hasLast := mem.LastMovie()
	switch {
	case sequelWordsRe.MatchString(query) && hasLast:
		return fmt.Sprintf("I couldn't find a sequel to %s. Which title do you mean?", last.Title)
	case sequelWordsRe.MatchString(query):
		return "Which sequel do you mean? Tell me the title and I'll look it up."
	case otherWordsRe.MatchString(query):
		return "Which movie did you have in mind? Give me the title and I'll look it up."
	default:
		return "I couldn't tell which movie you mean. Could you give me the title?"
	}
}

func notFound(title string) string {
	return fmt.Sprintf(`I couldn't find %q in the catalog. Check the spelling or add the release year, e.g. "Dune 2021".`, title)
}

func joinTitles(list []string) string {
	switch len(list) {
	case 0:
		return ""
	case 1:
		return list[0]
	default:
		return strings.Join(list[:len(list)-1], ", ") + " or " + list[len(list)-1]
	}
}
