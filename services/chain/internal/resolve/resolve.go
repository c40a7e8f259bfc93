// Package resolve turns a chat message into candidate movie titles.
//
// Strategies run in order and the first non-empty answer wins: a direct
// bypass for titles carrying a year or actor or read like a comparison,
// contextual rules against
// conversation memory, model-assisted extraction, then regex fallback.
package resolve

import (
	"context"

	"bingehouse/internal/util"
	"bingehouse/pkg/domain"
	"bingehouse/services/chain/internal/titles"
)

// Strategy names which step produced a Result.
type Strategy string

const (
	StrategyBypass     Strategy = "bypass"
	StrategyContextual Strategy = "contextual"
	StrategyModel      Strategy = "model"
	StrategyRegex      Strategy = "regex"
	StrategyNone       Strategy = "none"
)

// Result is the outcome of Resolve.
type Result struct {
	Titles   []string
	Strategy Strategy
	// Category is the contextual rule that matched, if any.
	Category string
	// Suppressed means a contextual rule deliberately returned no title so
	// the turn is answered conversationally.
	Suppressed bool
	// Sentinel is the non-title label returned by the extractor, if any.
	Sentinel Sentinel
	// Tokens spent on model extraction.
	Tokens int
}

// General reports whether the caller should answer conversationally
// instead of looking a movie up.
func (r Result) General() bool {
	return r.Suppressed || r.Sentinel != ""
}

// Resolver runs the resolution strategies. A nil extractor skips the model step.
type Resolver struct {
	extractor Extractor
}

func New(extractor Extractor) *Resolver {
	return &Resolver{extractor: extractor}
}

// Resolve returns candidate titles for query. It never fails: extractor
// errors fall through to the regex step.
func (r *Resolver) Resolve(ctx context.Context, query string, mem *domain.ConversationMemory) Result {
	logger := util.LoggerFromContext(ctx)

	if candidate := titles.StripLookupPhrasing(query); titles.IsDirectSpecific(candidate) {
		return Result{Titles: []string{candidate}, Strategy: StrategyBypass}
	}
	if title, ok := titles.KnownTitle(query); ok {
		return Result{Titles: []string{title}, Strategy: StrategyBypass}
	}

	if res, ok := resolveContextual(query, mem); ok {
		res.Strategy = StrategyContextual
		return res
	}

	var tokens int
	if r.extractor != nil {
		ext, err := r.extractor.Extract(ctx, ExtractRequest{
			Query:        query,
			Turns:        mem.RecentMessages(4),
			RecentTitles: mem.RecentTitles(2),
		})
		tokens = ext.Tokens
		switch {
		case err != nil:
			logger.Warn("title extraction failed, using regex fallback", "err", err)
		case ext.Sentinel != "":
			return Result{Strategy: StrategyModel, Sentinel: ext.Sentinel, Tokens: tokens}
		case titles.ValidCandidate(ext.Title):
			return Result{Titles: []string{titles.Clean(ext.Title)}, Strategy: StrategyModel, Tokens: tokens}
		}
	}

	if candidate, ok := regexFallback(query); ok {
		return Result{Titles: []string{candidate}, Strategy: StrategyRegex, Tokens: tokens}
	}
	return Result{Strategy: StrategyNone, Tokens: tokens}
}
