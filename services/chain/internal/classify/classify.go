// Package classify decides whether a chat message is general conversation or
// a movie lookup. Rules are evaluated top to bottom and the first match wins.
package classify

import (
	"regexp"
	"strings"

	"bingehouse/pkg/domain"
	"bingehouse/services/chain/internal/titles"
)

// Kind is the sub-classification of a query.
type Kind string

const (
	KindMovie          Kind = "movie"
	KindComparison     Kind = "comparison"
	KindSimpleResponse Kind = "simple-response"
	KindPreference     Kind = "preference"
	KindRecommendation Kind = "recommendation"
	KindFollowUp       Kind = "follow-up"
	KindSmallTalk      Kind = "small-talk"
)

// Result is the outcome of Classify.
type Result struct {
	General bool
	Kind    Kind
	// Similar marks recommendation requests anchored on a discussed movie
	// ("recommend similar", "movies like that").
	Similar bool
	// Rule names the rule that matched.
	Rule string
}

type query struct {
	raw   string
	text  string // lower-cased, cleaned
	words []string
	mem   *domain.ConversationMemory
}

type rule struct {
	name  string
	match func(q query) (Result, bool)
}

// rules is the ordered rule table.
var rules = []rule{
	{"movie-lookup", matchMovieLookup},
	{"comparison", matchComparison},
	{"simple-response", matchSimpleResponse},
	{"follow-up", matchFollowUp},
	{"recommendation", matchRecommendation},
	{"small-talk", matchSmallTalk},
}

// Classify runs the rule table over query. mem may be nil.
func Classify(raw string, mem *domain.ConversationMemory) Result {
	text := strings.ToLower(titles.Clean(raw))
	q := query{raw: raw, text: text, words: titles.Words(text), mem: mem}
	for _, r := range rules {
		if res, ok := r.match(q); ok {
			res.Rule = r.name
			return res
		}
	}
	return Result{Kind: KindMovie, Rule: "default"}
}

var (
	lookupPrefixRe = regexp.MustCompile(`^(?:how(?:'s|s| is| was| good is| about)|tell me about|what about|thoughts on|what do you think (?:of|about)|what did you think (?:of|about)|review(?: of)?|rate|should i watch|should i see|have you seen|info on|details on)\s+(.+)$`)
	lookupWorthRe  = regexp.MustCompile(`^(?:is|was)\s+(.+?)\s+(?:worth (?:it|watching|a watch|seeing)|any good|good|a good (?:movie|film)|overrated|underrated|scary|funny)$`)
	lookupSuffixRe = regexp.MustCompile(`^(.+?)\s+(?:movie|film)$`)

	contextualRes = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:the\s+)?sequel\b`),
		regexp.MustCompile(`\b(?:that|this|the same|the last) (?:movie|film)\b`),
		regexp.MustCompile(`\bthe original\b`),
		regexp.MustCompile(`\bthe remake\b`),
		regexp.MustCompile(`\bpart (?:\d+|ii|iii|two|three)\b`),
		regexp.MustCompile(`\b(?:the )?(?:first|second|third|next|previous) one\b`),
		regexp.MustCompile(`\b(?:the )?(?:19|20)\d{2} (?:one|version)\b`),
	}
	recentRe  = regexp.MustCompile(`\b(?:recent|latest|newest)\s+(.+)$`)
	countryRe = regexp.MustCompile(`\b(\w+)\s+(?:one|version|remake)\b`)

	comparisonRes = []*regexp.Regexp{
		regexp.MustCompile(`\bwhich (?:one )?(?:is|was) (?:better|best|scarier|funnier)\b`),
		regexp.MustCompile(`\bwhich (?:one|should i)\b`),
		regexp.MustCompile(`\S\s+or\s+\S`),
		regexp.MustCompile(`\bvs\.?\b|\bversus\b`),
		regexp.MustCompile(`\bcompare\b|\bcompared to\b|\bbetter than\b`),
	}

	followUpRe = regexp.MustCompile(`^(?:why|why not|how come|how (?:is|was) it|really|tell me more|more|what else|and|so|is it|was it|does it|did it|who(?:'s| is| was)? in it|who directed it|what(?:'s| is) it about|how long is it|what is the plot|any spoilers|should i|would i like it|is it for kids)\b`)

	similarRe   = regexp.MustCompile(`\b(?:similar|movies? like|films? like|something like|more like|anything like)\b`)
	recommendRe = regexp.MustCompile(`\b(?:recommend|recommendation|recommendations|suggest|suggestion|suggestions|what should i watch|what to watch|something to watch|give me|find me|show me|looking for|in the mood for)\b`)
	preferRe    = regexp.MustCompile(`^i(?:'m| am)?\s+(?:really\s+)?(?:love|like|enjoy|prefer|hate|dislike|into|a fan of|big fan of|not into|don't like|can't stand)\b`)

	greetingRe = regexp.MustCompile(`^(?:hi|hello|hey|heya|yo|sup|howdy|good (?:morning|afternoon|evening|night)|how are you|how's it going|what'?s up|thanks|thank you|thx|bye|goodbye|see ya|who are you|what can you do|help|lol|haha|hmm+)\b`)
)

var simpleResponses = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "sure": true, "no": true, "nope": true,
	"nah": true, "ok": true, "okay": true, "k": true, "maybe": true, "definitely": true,
	"absolutely": true, "of course": true, "not really": true, "sounds good": true, "cool": true,
	"nice": true, "great": true, "thanks": true, "thank you": true, "ok thanks": true,
	"yes please": true, "no thanks": true, "sure thing": true, "alright": true,
}

var conversationalWords = map[string]bool{
	"i": true, "i'm": true, "you": true, "me": true, "my": true, "we": true, "it": true,
	"that": true, "this": true, "what": true, "why": true, "how": true, "who": true, "when": true,
	"where": true, "which": true, "is": true, "are": true, "do": true, "does": true, "can": true,
	"could": true, "would": true, "should": true, "will": true, "think": true, "like": true,
	"love": true, "hate": true, "want": true, "need": true, "know": true, "feel": true,
	"watch": true, "watched": true, "recommend": true, "suggest": true, "please": true,
	"hi": true, "hello": true, "hey": true, "thanks": true, "ok": true, "okay": true, "lol": true,
	"haha": true, "hmm": true, "yes": true, "no": true, "yeah": true, "yep": true, "nope": true,
	"sure": true, "or": true, "vs": true, "versus": true, "any": true, "some": true, "something": true,
	"anything": true, "tell": true, "more": true, "again": true, "bye": true, "cool": true, "nice": true,
}

var movieKeywords = map[string]bool{
	"movie": true, "movies": true, "film": true, "films": true, "watch": true, "watching": true,
	"cinema": true, "actor": true, "actress": true, "director": true, "rating": true, "imdb": true,
	"sequel": true, "prequel": true, "trailer": true, "cast": true, "plot": true, "review": true,
	"series": true, "franchise": true, "remake": true, "starring": true, "directed": true,
}

// pronounTargets are lookup subjects that refer back instead of naming a movie.
var pronounTargets = map[string]bool{
	"it": true, "that": true, "this": true, "them": true, "that one": true, "this one": true,
	"those": true, "these": true, "him": true, "her": true,
}

func matchMovieLookup(q query) (Result, bool) {
	if simpleResponses[strings.Join(q.words, " ")] {
		return Result{}, false
	}
	movie := Result{Kind: KindMovie}
	if _, ok := titles.KnownTitle(q.text); ok {
		return movie, true
	}
	if isComparison(q.text) {
		return Result{}, false
	}
	for _, re := range []*regexp.Regexp{lookupPrefixRe, lookupWorthRe} {
		if m := re.FindStringSubmatch(q.text); m != nil && namesMovie(m[1]) {
			return movie, true
		}
	}
	if m := lookupSuffixRe.FindStringSubmatch(q.text); m != nil && namesMovie(m[1]) && !recommendRe.MatchString(q.text) {
		return movie, true
	}
	for _, re := range contextualRes {
		if re.MatchString(q.text) && !similarRe.MatchString(q.text) && !recommendRe.MatchString(q.text) {
			return movie, true
		}
	}
	if m := recentRe.FindStringSubmatch(q.text); m != nil && namesMovie(m[1]) {
		return movie, true
	}
	if m := countryRe.FindStringSubmatch(q.text); m != nil {
		if _, ok := titles.Country(m[1]); ok {
			return movie, true
		}
	}
	if looksLikeTitle(q.words) {
		return movie, true
	}
	return Result{}, false
}

// namesMovie reports whether a captured lookup subject could be a title.
func namesMovie(subject string) bool {
	subject = strings.TrimSpace(subject)
	if subject == "" || pronounTargets[subject] {
		return false
	}
	return !titles.OnlyGeneric(subject)
}

// looksLikeTitle accepts one to six words with no conversational vocabulary.
func looksLikeTitle(words []string) bool {
	if len(words) == 0 || len(words) > 6 {
		return false
	}
	for _, w := range words {
		if conversationalWords[w] {
			return false
		}
	}
	return !titles.OnlyGeneric(strings.Join(words, " "))
}

func matchComparison(q query) (Result, bool) {
	if isComparison(q.text) {
		return Result{General: true, Kind: KindComparison}, true
	}
	return Result{}, false
}

// isComparison reports whether text asks to weigh movies against each other.
// A comparison never reaches title resolution, even when it is phrased as a
// lookup.
func isComparison(text string) bool {
	for _, re := range comparisonRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func matchSimpleResponse(q query) (Result, bool) {
	text := strings.Trim(strings.Join(q.words, " "), " ")
	if simpleResponses[text] {
		return Result{General: true, Kind: KindSimpleResponse}, true
	}
	return Result{}, false
}

func matchFollowUp(q query) (Result, bool) {
	if _, ok := q.mem.LastMovie(); !ok {
		return Result{}, false
	}
	if followUpRe.MatchString(q.text) {
		return Result{General: true, Kind: KindFollowUp}, true
	}
	return Result{}, false
}

func matchRecommendation(q query) (Result, bool) {
	if similarRe.MatchString(q.text) {
		return Result{General: true, Kind: KindRecommendation, Similar: true}, true
	}
	if preferRe.MatchString(q.text) {
		return Result{General: true, Kind: KindPreference}, true
	}
	if recommendRe.MatchString(q.text) && titles.OnlyGeneric(recommendRe.ReplaceAllString(q.text, " ")) {
		return Result{General: true, Kind: KindRecommendation}, true
	}
	if len(titles.GenresIn(q.text)) > 0 && titles.OnlyGeneric(q.text) {
		return Result{General: true, Kind: KindRecommendation}, true
	}
	return Result{}, false
}

func matchSmallTalk(q query) (Result, bool) {
	if greetingRe.MatchString(q.text) {
		return Result{General: true, Kind: KindSmallTalk}, true
	}
	if len(q.words) <= 4 && !hasMovieKeyword(q.words) && !looksLikeTitle(q.words) {
		return Result{General: true, Kind: KindSmallTalk}, true
	}
	return Result{}, false
}

func hasMovieKeyword(words []string) bool {
	for _, w := range words {
		if movieKeywords[w] {
			return true
		}
	}
	return false
}
