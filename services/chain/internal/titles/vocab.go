package titles

import "strings"

// Country adjectives users attach to titles ("the korean one") and the
// country each names.
var countries = map[string]string{
	"american":   "USA",
	"british":    "UK",
	"chinese":    "China",
	"danish":     "Denmark",
	"french":     "France",
	"german":     "Germany",
	"hindi":      "India",
	"indian":     "India",
	"italian":    "Italy",
	"japanese":   "Japan",
	"korean":     "South Korea",
	"mexican":    "Mexico",
	"russian":    "Russia",
	"spanish":    "Spain",
	"swedish":    "Sweden",
	"thai":       "Thailand",
	"turkish":    "Turkey",
	"bollywood":  "India",
	"hollywood":  "USA",
	"english":    "UK",
	"norwegian":  "Norway",
	"argentine":  "Argentina",
	"brazilian":  "Brazil",
	"australian": "Australia",
}

// Country returns the country named by an adjective such as "korean".
func Country(adjective string) (string, bool) {
	c, ok := countries[strings.ToLower(strings.TrimSpace(adjective))]
	return c, ok
}

// CountryIn returns the first country adjective found among the words of s.
func CountryIn(s string) (string, bool) {
	for _, w := range Words(s) {
		if _, ok := countries[w]; ok {
			return w, true
		}
	}
	return "", false
}

var stopWords = set(
	"a", "an", "the", "it", "its", "this", "that", "these", "those", "them", "one", "ones",
	"movie", "movies", "film", "films", "something", "anything", "what", "why", "how", "who",
	"yes", "no", "yeah", "yep", "nope", "sure", "ok", "okay", "thanks", "hi", "hello", "hey",
	"good", "great", "bad", "sequel", "original", "recent", "latest", "me", "you", "i",
	"that one", "this one", "that movie", "this movie", "the sequel", "the original",
	"the movie", "the film", "watch", "worth watching", "recommend", "similar",
)

// IsStopWord reports whether s is a word or phrase that can never be a title
// candidate.
func IsStopWord(s string) bool {
	_, ok := stopWords[strings.ToLower(Clean(s))]
	return ok
}

// ValidCandidate rejects stop-words and strings under three characters.
func ValidCandidate(s string) bool {
	s = Clean(s)
	return len([]rune(s)) >= 3 && !IsStopWord(s)
}

func set(items ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}

// genreWords maps request vocabulary to catalog genre names. Words mapped to
// "" describe a mood rather than a genre.
var genreWords = map[string]string{
	"action": "Action", "adventure": "Adventure", "animated": "Animation", "animation": "Animation",
	"anime": "Animation", "cartoon": "Animation", "comedy": "Comedy", "comedies": "Comedy",
	"funny": "Comedy", "rom-com": "Romance", "romcom": "Romance", "romance": "Romance",
	"romantic": "Romance", "crime": "Crime", "heist": "Crime", "gangster": "Crime",
	"documentary": "Documentary", "documentaries": "Documentary", "drama": "Drama", "dramas": "Drama",
	"family": "Family", "kids": "Family", "fantasy": "Fantasy", "horror": "Horror",
	"scary": "Horror", "slasher": "Horror", "zombie": "Horror", "zombies": "Horror",
	"mystery": "Mystery", "mysteries": "Mystery", "whodunit": "Mystery", "sci-fi": "Sci-Fi",
	"scifi": "Sci-Fi", "science": "Sci-Fi", "space": "Sci-Fi", "thriller": "Thriller",
	"thrillers": "Thriller", "suspense": "Thriller", "psychological": "Thriller", "spy": "Thriller",
	"war": "War", "western": "Western", "westerns": "Western", "musical": "Musical",
	"musicals": "Musical", "superhero": "Action", "biopic": "Biography", "historical": "History",
	"sports": "Sport", "noir": "", "indie": "", "foreign": "", "classic": "", "classics": "",
	"sad": "", "feel-good": "", "slow-burn": "", "mind-bending": "", "christmas": "",
	"holiday": "", "teen": "", "disaster": "", "fiction": "",
}

var genericWords = set(
	"movie", "movies", "film", "films", "flick", "flicks", "something", "anything", "one", "ones",
	"show", "shows", "series", "good", "great", "best", "top", "new", "recent", "latest", "old",
	"some", "any", "a", "an", "the", "to", "watch", "for", "me", "us", "tonight", "please", "with",
	"my", "of", "in", "on", "and", "really", "very", "cool", "fun", "light", "dark", "slow", "burn",
	"short", "long", "popular", "underrated", "hidden", "gem", "gems", "list", "few", "couple",
	"other", "another", "else", "suggestions", "recommendations", "options", "ideas", "kind",
	"type", "sort", "more", "decent", "solid", "nice", "watching", "weekend", "date", "night",
	"i", "can", "you", "could", "would", "like", "want", "need", "looking", "mood", "what", "are",
	"is", "some", "give", "show", "find", "tell", "about", "recommend", "suggest", "suggestion",
	"recommendation", "should", "worth", "that", "this", "2", "3", "5", "10", "three", "five",
	"all", "time", "ever", "how", "from", "year", "era", "80s", "90s", "2000s",
)

// GenreOf maps a request word to its catalog genre.
func GenreOf(word string) (string, bool) {
	g, ok := genreWords[strings.ToLower(word)]
	return g, ok
}

// GenresIn returns the distinct catalog genres named in s, in order.
func GenresIn(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range Words(s) {
		g, ok := genreWords[w]
		if !ok || g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}

// OnlyGeneric reports whether every word of s is generic request vocabulary
// or a genre word, i.e. s names no specific movie.
func OnlyGeneric(s string) bool {
	words := Words(s)
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if _, ok := genericWords[w]; ok {
			continue
		}
		if _, ok := genreWords[w]; ok {
			continue
		}
		return false
	}
	return true
}

// knownTitles are real titles that read like a comparison or a genre request.
var knownTitles = []string{
	"Hell or High Water", "Dead or Alive", "Trick or Treat", "Double or Nothing",
	"Freddy vs. Jason", "Alien vs. Predator", "Kramer vs. Kramer", "Scott Pilgrim vs. the World",
	"Scary Movie 2", "Scary Movie 3", "Scary Movie 4", "Scary Movie 5", "Scary Movie",
	"Superhero Movie", "Disaster Movie", "Date Night", "Spy Kids",
}

// KnownTitle returns the listed title that s asks about, allowing lookup
// wording around it: "how is hell or high water" yields "Hell or High Water".
func KnownTitle(s string) (string, bool) {
	padded := " " + Key(s) + " "
	for _, title := range knownTitles {
		span := " " + Key(title) + " "
		if !strings.Contains(padded, span) {
			continue
		}
		if rest := strings.Replace(padded, span, " title ", 1); strings.EqualFold(StripLookupPhrasing(rest), "title") {
			return title, true
		}
	}
	return "", false
}
