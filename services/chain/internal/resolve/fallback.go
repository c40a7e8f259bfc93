package resolve

import (
	"regexp"
	"strings"

	"bingehouse/services/chain/internal/titles"
)

var (
	fallbackHowRe       = regexp.MustCompile(`(?i)^how(?:'s|s| is| was| good is| about)\s+(.+)$`)
	fallbackRecommendRe = regexp.MustCompile(`(?i)\b(?:recommend|review|rate)\s+(.+)$`)
	fallbackAboutRe     = regexp.MustCompile(`(?i)\b(?:about|on)\s+(.+)$`)
	fallbackQuotedRe    = regexp.MustCompile(`["“]([^"”]{2,})["”]`)
	fallbackYearRe      = regexp.MustCompile(`(?i)\b([a-z0-9][\w:'&.\- ]*?)\s*\(?((?:19|20)\d{2})\)?`)
	fallbackCountryRe   = regexp.MustCompile(`(?i)\b([a-z]+)\s+(?:version of\s+|movie\s+|film\s+)?(.+)$`)
)

// regexFallback tries the fixed pattern list, then the cleaned query itself.
func regexFallback(query string) (string, bool) {
	cleaned := titles.Clean(query)
	attempts := []func() string{
		func() string { return group(fallbackHowRe, cleaned, 1) },
		func() string { return group(fallbackRecommendRe, cleaned, 1) },
		func() string { return group(fallbackAboutRe, cleaned, 1) },
		func() string { return group(fallbackQuotedRe, strings.TrimSpace(query), 1) },
		func() string {
			m := fallbackYearRe.FindStringSubmatch(cleaned)
			if m == nil || strings.TrimSpace(m[1]) == "" {
				return ""
			}
			return strings.TrimSpace(m[1]) + " " + m[2]
		},
		func() string {
			m := fallbackCountryRe.FindStringSubmatch(cleaned)
			if m == nil {
				return ""
			}
			if _, ok := titles.Country(m[1]); !ok {
				return ""
			}
			return m[2] + " " + titles.TitleCase(m[1])
		},
	}
	for _, attempt := range attempts {
		if candidate := cleanCandidate(attempt()); titles.ValidCandidate(candidate) && !titles.OnlyGeneric(candidate) {
			return candidate, true
		}
	}
	if candidate := cleanCandidate(cleaned); titles.ValidCandidate(candidate) {
		return candidate, true
	}
	return "", false
}

func group(re *regexp.Regexp, s string, i int) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[i]
}

func cleanCandidate(s string) string {
	return titles.StripLookupPhrasing(s)
}
