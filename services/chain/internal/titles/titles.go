// Package titles holds the movie-title text rules shared by the classifier,
// resolver and catalog lookup.
package titles

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	parenYearRe     = regexp.MustCompile(`\s*\(\s*(?:19|20)\d{2}\s*\)`)
	trailingYearRe  = regexp.MustCompile(`\s+(?:19|20)\d{2}$`)
	trailingPartRe  = regexp.MustCompile(`(?i)\s+(?:part|chapter|vol\.?|volume)?\s*(?:\d{1,2}|ii|iii|iv|v|vi|two|three|four)$`)
	qualifiedYearRe = regexp.MustCompile(`^(.+?)(?:\s+|\s*\()((?:19|20)\d{2})\)?$`)
	qualifiedCastRe = regexp.MustCompile(`(?i)^(.+?)\s+(?:with|starring|featuring)\s+(.+)$`)
	recentPrefixRe  = regexp.MustCompile(`(?i)^(?:the\s+)?(?:most\s+)?(?:recent|latest|newest)\s+(.+)$`)
	spaceRe         = regexp.MustCompile(`\s+`)
	keyPunctRe      = regexp.MustCompile(`[^a-z0-9 ]+`)
)

var titleCaser = cases.Title(language.English)

// BaseTitle strips a parenthesized year, a trailing year, a subtitle after
// ':' or ' - ', and a trailing part or sequel number.
func BaseTitle(title string) string {
	original := strings.TrimSpace(title)
	s := parenYearRe.ReplaceAllString(original, "")
	s = trailingYearRe.ReplaceAllString(strings.TrimSpace(s), "")
	if i := strings.Index(s, ":"); i > 0 {
		s = s[:i]
	}
	if i := strings.Index(s, " - "); i > 0 {
		s = s[:i]
	}
	s = trailingPartRe.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.TrimSpace(s)
	if s == "" {
		return original
	}
	return s
}

// Qualified is a title string split into its search root and the optional
// year and actor qualifiers a user attached to it.
type Qualified struct {
	Base   string
	Year   int
	Actor  string
	Recent bool
}

// HasQualifiers reports whether a year or actor was given.
func (q Qualified) HasQualifiers() bool {
	return q.Year > 0 || q.Actor != ""
}

// ParseQualified splits "Oldboy 2003", "Oldboy (2003)", "Heat with Al Pacino"
// and "recent Mission Impossible".
func ParseQualified(title string) Qualified {
	s := Clean(title)
	var q Qualified
	if m := recentPrefixRe.FindStringSubmatch(s); m != nil {
		q.Recent = true
		s = strings.TrimSpace(m[1])
	}
	if m := qualifiedCastRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
		q.Actor = strings.TrimSpace(m[2])
	}
	if m := qualifiedYearRe.FindStringSubmatch(s); m != nil && strings.TrimSpace(m[1]) != "" {
		year, _ := strconv.Atoi(m[2])
		s = strings.TrimSpace(m[1])
		q.Year = year
	}
	q.Base = s
	return q
}

// IsDirectSpecific reports whether s names a title with a year or actor
// qualifier, e.g. "Dune 2021" or "Heat with Al Pacino".
func IsDirectSpecific(s string) bool {
	s = Clean(s)
	if s == "" {
		return false
	}
	if m := qualifiedYearRe.FindStringSubmatch(s); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.ContainsAny(m[1], "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	return qualifiedCastRe.MatchString(s)
}

// Clean trims whitespace, quotes and trailing punctuation and collapses runs
// of spaces.
func Clean(s string) string {
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.Trim(s, "\"'“”‘’`")
	s = strings.TrimRight(s, "?!.,;")
	return strings.TrimSpace(strings.Trim(s, "\"'“”‘’`"))
}

// Key normalizes a title for map lookups: lower case, no leading article,
// punctuation dropped.
func Key(title string) string {
	s := strings.ToLower(Clean(title))
	s = strings.ReplaceAll(s, "&", " and ")
	s = keyPunctRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.TrimPrefix(s, "the ")
	return s
}

// TitleCase capitalizes each word, used when a cleaned query becomes a
// candidate title.
func TitleCase(s string) string {
	return titleCaser.String(strings.ToLower(s))
}

// Words lower-cases s and splits it into words, keeping inner apostrophes
// and hyphens.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'', r == '-', r == '’':
			return false
		default:
			return r < 128
		}
	})
}

// SignificantWords returns the words longer than two characters.
func SignificantWords(s string) []string {
	var out []string
	for _, w := range Words(s) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

var (
	lookupPrefixRe = regexp.MustCompile(`(?i)^(?:how(?:'s|s| is| was| good is| about)|tell me about|what about|thoughts on|what do you think (?:of|about)|what did you think (?:of|about)|review(?: of)?|rate|should i (?:watch|see)|have you seen|is|was|info on|details on|the movie|the film)\s+`)
	lookupSuffixRe = regexp.MustCompile(`(?i)\s+(?:worth (?:it|watching|a watch|seeing)|any good|good|a good (?:movie|film)|overrated|underrated|movie|film)$`)
)

// StripLookupPhrasing removes question wording around a title:
// "How is Dune 2021 worth watching?" becomes "Dune 2021".
func StripLookupPhrasing(s string) string {
	s = Clean(s)
	for {
		next := lookupPrefixRe.ReplaceAllString(s, "")
		next = lookupSuffixRe.ReplaceAllString(next, "")
		next = Clean(next)
		if next == s || next == "" {
			return s
		}
		s = next
	}
}
