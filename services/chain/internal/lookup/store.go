package lookup

import (
	"context"
	"strconv"
	"strings"

	"bingehouse/pkg/domain"
	"bingehouse/pkg/store"
	"bingehouse/services/chain/internal/titles"
)

const fuzzyLimit = 20

// fromStore returns the user's stored copy: exact title first, then the
// best-scoring fuzzy match.
func (l *Lookup) fromStore(ctx context.Context, userID, candidate string, q titles.Qualified) (domain.Movie, string, error) {
	movie, ok, err := l.movies.FindMovieByTitle(ctx, userID, candidate)
	if err != nil {
		return domain.Movie{}, "", err
	}
	if ok {
		return movie, "store-exact", nil
	}
	if q.HasQualifiers() {
		movie, ok, err := l.movies.FindMovieByTitle(ctx, userID, q.Base)
		if err != nil {
			return domain.Movie{}, "", err
		}
		if ok && matchesQualifiers(movie, q) {
			return movie, "store-exact", nil
		}
	}

	seen := make(map[string]bool)
	var pool []domain.Movie
	for _, pattern := range fuzzyPatterns(q.Base) {
		rows, err := l.movies.SearchMoviesByTitle(ctx, userID, pattern, fuzzyLimit)
		if err != nil {
			return domain.Movie{}, "", err
		}
		for _, row := range rows {
			if seen[row.ID] {
				continue
			}
			seen[row.ID] = true
			if q.HasQualifiers() && !matchesQualifiers(row, q) {
				continue
			}
			pool = append(pool, row)
		}
	}
	best, ok := bestFuzzy(pool, q.Base)
	if !ok {
		return domain.Movie{}, "", nil
	}
	return best, "store-fuzzy", nil
}

// fuzzyPatterns returns the raw, colon-stripped and space-as-wildcard LIKE
// patterns for a title. Wildcards typed by the user match literally.
func fuzzyPatterns(title string) []string {
	raw := store.EscapeLike(strings.ToLower(strings.TrimSpace(title)))
	if raw == "" {
		return nil
	}
	return []string{
		"%" + raw + "%",
		"%" + strings.Join(strings.Fields(strings.ReplaceAll(raw, ":", "")), " ") + "%",
		"%" + strings.Join(strings.Fields(raw), "%") + "%",
	}
}

// fuzzyScore counts shared significant words minus the length difference.
// shared is returned separately so callers can require overlap.
func fuzzyScore(candidate, query string) (score, shared int) {
	want := make(map[string]bool)
	for _, w := range titles.SignificantWords(query) {
		want[w] = true
	}
	for _, w := range titles.SignificantWords(candidate) {
		if want[w] {
			shared++
			delete(want, w)
		}
	}
	diff := len(candidate) - len(query)
	if diff < 0 {
		diff = -diff
	}
	return shared - diff, shared
}

// bestFuzzy picks the highest score; ties keep the earlier row.
func bestFuzzy(rows []domain.Movie, query string) (domain.Movie, bool) {
	var best domain.Movie
	bestScore, found := 0, false
	for _, row := range rows {
		score, shared := fuzzyScore(row.Title, query)
		if shared == 0 {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = row, score, true
		}
	}
	return best, found
}

func matchesQualifiers(movie domain.Movie, q titles.Qualified) bool {
	if q.Year > 0 {
		year, ok := releaseYear(movie.Year)
		if !ok || year != q.Year {
			return false
		}
	}
	if q.Actor != "" && !actorMatches(movie.Actors, q.Actor) {
		return false
	}
	return true
}

// releaseYear parses "2003", "2019–2021" or "2019–" to the start year.
func releaseYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(raw[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}
