package domain

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var votePrinter = message.NewPrinter(language.English)

// ParseRating returns the numeric rating and whether it was usable.
// Infinities and NaN are not usable.
func ParseRating(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "N/A") {
		return 0, false
	}
	raw = strings.TrimSuffix(raw, "/10")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}
	return value, true
}

// IsWorthWatching reports rating >= 7.0. Missing or non-numeric ratings are false.
func IsWorthWatching(rating string) bool {
	value, ok := ParseRating(rating)
	return ok && value >= WorthWatchingThreshold
}

// ParseVotes converts a catalog vote count such as "1,234,567" to an integer.
// Unusable input ("N/A", empty, non-numeric, negative) yields 0.
func ParseVotes(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	raw = strings.ReplaceAll(raw, ",", "")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatVotes normalizes a vote count for display, e.g. "1234567" -> "1,234,567".
func FormatVotes(raw string) string {
	n := ParseVotes(raw)
	if n == 0 {
		return "0"
	}
	return votePrinter.Sprintf("%d", n)
}
