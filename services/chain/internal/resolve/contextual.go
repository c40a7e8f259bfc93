package resolve

import (
	"regexp"
	"strconv"
	"strings"

	"bingehouse/pkg/domain"
	"bingehouse/services/chain/internal/titles"
)

type contextInput struct {
	raw     string // cleaned, original case
	text    string // lower-cased
	mem     *domain.ConversationMemory
	last    domain.DiscussedMovie
	hasLast bool
}

type contextRule struct {
	category string
	// needsLast rules only apply when a movie has been discussed.
	needsLast bool
	match     func(in contextInput) (Result, bool)
}

// Categories reported for suppressed lookups.
const (
	SuppressedSimilar        = "similar"
	SuppressedComparison     = "comparison"
	SuppressedRecommendation = "recommendation"
)

// contextRules is evaluated top to bottom.
var contextRules = []contextRule{
	{"suppressed", false, matchSuppressed},
	{"direct-mention", false, matchDirectMention},
	{"recent", false, matchRecent},
	{"sequel", true, matchSequel},
	{"clarification", true, matchClarification},
	{"country", true, matchCountry},
	{"year", true, matchYear},
	{"original", true, matchOriginal},
	{"direct-reference", true, matchDirectReference},
}

var (
	similarRe    = regexp.MustCompile(`\b(?:similar|movies? like|films? like|something like|more like|anything like)\b`)
	comparisonRe = regexp.MustCompile(`\bwhich (?:one )?(?:is|was) better\b|\S\s+or\s+\S|\bvs\.?\b|\bversus\b|\bcompare\b|\bbetter than\b`)
	recommendRe  = regexp.MustCompile(`\b(?:recommend|suggest|what should i watch|something to watch|give me|find me)\b`)
	differentRe  = regexp.MustCompile(`\b(?:different|another|other|sequel|next|else|new one|prequel)\b`)
	sequelRe     = regexp.MustCompile(`\b(?:sequel|part (?:2|two|ii)|second one|next one|follow[- ]up)\b`)
	clarifyRe    = regexp.MustCompile(`^(?:no|nope|nah|not that one|not that|i meant|i mean|actually|wrong one)\b`)
	qualifierRe  = regexp.MustCompile(`\b(?:the\s+)?([\w-]+)\s+(?:one|version|remake)\b`)
	yearRe       = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	recentRe     = regexp.MustCompile(`(?i)\b(?:recent|latest|newest)\b\s*(.*)$`)
	originalRe   = regexp.MustCompile(`\b(?:the\s+)?(?:original|first one|first movie|first film)\b`)
	referenceRe  = regexp.MustCompile(`\b(?:that|this|the same|same|the last) (?:movie|film|one)\b|\bit\b`)
)

func resolveContextual(query string, mem *domain.ConversationMemory) (Result, bool) {
	raw := titles.Clean(query)
	in := contextInput{raw: raw, text: strings.ToLower(raw), mem: mem}
	in.last, in.hasLast = mem.LastMovie()
	for _, rule := range contextRules {
		if rule.needsLast && !in.hasLast {
			continue
		}
		if res, ok := rule.match(in); ok {
			if res.Category == "" {
				res.Category = rule.category
			}
			return res, true
		}
	}
	return Result{}, false
}

func single(title string) Result {
	return Result{Titles: []string{title}}
}

func matchSuppressed(in contextInput) (Result, bool) {
	switch {
	case similarRe.MatchString(in.text):
		return Result{Suppressed: true, Category: SuppressedSimilar}, true
	case comparisonRe.MatchString(in.text):
		return Result{Suppressed: true, Category: SuppressedComparison}, true
	case recommendRe.MatchString(in.text) && titles.OnlyGeneric(recommendRe.ReplaceAllString(in.text, " ")):
		return Result{Suppressed: true, Category: SuppressedRecommendation}, true
	}
	return Result{}, false
}

func matchDirectMention(in contextInput) (Result, bool) {
	if differentRe.MatchString(in.text) {
		return Result{}, false
	}
	key := " " + titles.Key(in.raw) + " "
	for _, title := range in.mem.RecentTitles(domain.MaxDiscussedMovies) {
		tk := titles.Key(title)
		if len(tk) < 3 {
			continue
		}
		idx := strings.Index(key, " "+tk+" ")
		if idx < 0 || continuesTitle(key[idx+len(tk)+1:], in.text, tk) {
			continue
		}
		return single(title), true
	}
	return Result{}, false
}

var continuationRe = regexp.MustCompile(`^(?:\d{1,2}|ii|iii|iv|v|vi|vii|viii|part|chapter|vol|volume|two|three|four|five|returns|rises|reloaded|revolutions|resurrection|resurrections)$`)

// continuesTitle reports whether the query names a longer title that starts
// with the discussed one, e.g. "Toy Story 3" or "Dune: Part Two" after "Dune".
// after is the query key following the matched span.
func continuesTitle(after, text, tk string) bool {
	if next := strings.Fields(after); len(next) > 0 && continuationRe.MatchString(next[0]) {
		return true
	}
	words := strings.Fields(tk)
	return strings.Contains(text, words[len(words)-1]+":")
}

// matchRecent keeps the recency hint for the catalog lookup: either the named
// title ("latest mission impossible") or, with nothing named, the last
// discussed movie's base title.
func matchRecent(in contextInput) (Result, bool) {
	m := recentRe.FindStringSubmatch(in.raw)
	if m == nil {
		return Result{}, false
	}
	rest := titles.StripLookupPhrasing(m[1])
	if rest != "" && !titles.OnlyGeneric(rest) && titles.ValidCandidate(rest) {
		return single("recent " + rest), true
	}
	if in.hasLast {
		return single("recent " + titles.BaseTitle(in.last.Title)), true
	}
	return Result{}, false
}

func matchSequel(in contextInput) (Result, bool) {
	if !sequelRe.MatchString(in.text) {
		return Result{}, false
	}
	if next, ok := titles.NextSequel(in.last.Title, in.mem.HasDiscussed); ok {
		return single(next), true
	}
	if _, known := titles.Franchise(in.last.Title); known {
		// Nothing left in a known series; the caller asks which title is meant.
		return Result{}, true
	}
	year, _ := strconv.Atoi(in.last.Year)
	for _, candidate := range titles.GenericSequels(in.last.Title, year) {
		if !in.mem.HasDiscussed(candidate) {
			return single(candidate), true
		}
	}
	return Result{}, false
}

func matchClarification(in contextInput) (Result, bool) {
	if !clarifyRe.MatchString(in.text) {
		return Result{}, false
	}
	m := qualifierRe.FindStringSubmatch(in.text)
	if m == nil || titles.IsStopWord(m[1]) || titles.OnlyGeneric(m[1]) {
		return Result{}, false
	}
	return single(qualify(titles.BaseTitle(in.last.Title), m[1])), true
}

func matchCountry(in contextInput) (Result, bool) {
	adj, ok := titles.CountryIn(in.text)
	if !ok {
		return Result{}, false
	}
	rest := strings.Replace(in.text, adj, " ", 1)
	if !titles.OnlyGeneric(rest) {
		return Result{}, false
	}
	return single(qualify(titles.BaseTitle(in.last.Title), adj)), true
}

func matchYear(in contextInput) (Result, bool) {
	m := yearRe.FindStringSubmatch(in.text)
	if m == nil {
		return Result{}, false
	}
	if !titles.OnlyGeneric(strings.Replace(in.text, m[1], " ", 1)) {
		return Result{}, false
	}
	return single(titles.BaseTitle(in.last.Title) + " " + m[1]), true
}

func matchOriginal(in contextInput) (Result, bool) {
	if !originalRe.MatchString(in.text) {
		return Result{}, false
	}
	if first, ok := titles.FirstInFranchise(in.last.Title); ok {
		return single(first), true
	}
	return single(titles.BaseTitle(in.last.Title)), true
}

func matchDirectReference(in contextInput) (Result, bool) {
	if !referenceRe.MatchString(in.text) {
		return Result{}, false
	}
	return single(in.last.Title), true
}

// qualify appends a qualifier token to a base title, capitalizing words.
func qualify(base, qualifier string) string {
	if _, err := strconv.Atoi(qualifier); err == nil {
		return base + " " + qualifier
	}
	return base + " " + titles.TitleCase(qualifier)
}
