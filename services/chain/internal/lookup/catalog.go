package lookup

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"bingehouse/pkg/domain"
	"bingehouse/pkg/omdb"
	"bingehouse/services/chain/internal/titles"
)

const actorSimilarityThreshold = 0.7

// fromCatalog runs the catalog layers for one candidate. A non-nil error
// means the catalog could not be reached; misses return an empty layer.
func (l *Lookup) fromCatalog(ctx context.Context, candidate string, q titles.Qualified) (domain.Movie, string, error) {
	tried := make(map[string]bool)
	fetch := func(title, year string) (domain.Movie, bool, error) {
		key := strings.ToLower(title) + "|" + year
		if title == "" || tried[key] {
			return domain.Movie{}, false, nil
		}
		tried[key] = true
		movie, err := l.catalog.GetByTitle(ctx, title, year)
		if err != nil {
			if catalogMiss(ctx, err) {
				return domain.Movie{}, false, nil
			}
			return domain.Movie{}, false, err
		}
		return movie, true, nil
	}

	if q.HasQualifiers() {
		movie, ok, err := l.qualifiedSearch(ctx, q)
		if err != nil {
			return domain.Movie{}, "", err
		}
		if ok {
			return movie, "qualified-search", nil
		}
	}

	exact := candidate
	if q.Recent {
		exact = q.Base
	}
	if !q.Recent {
		if movie, ok, err := fetch(exact, ""); err != nil || ok {
			return movie, "exact", err
		}
	}

	for _, v := range variations(candidate, q) {
		if movie, ok, err := fetch(v.title, v.year); err != nil || ok {
			return movie, "variation", err
		}
	}

	movie, ok, err := l.reorderedSearch(ctx, q)
	if err != nil {
		return domain.Movie{}, "", err
	}
	if ok {
		return movie, "search", nil
	}
	return domain.Movie{}, "", nil
}

// qualifiedSearch searches the base title, keeps hits within a year of the
// requested one (exact years first), and rejects details whose cast does not
// include the requested actor.
func (l *Lookup) qualifiedSearch(ctx context.Context, q titles.Qualified) (domain.Movie, bool, error) {
	hits, err := l.catalog.Search(ctx, q.Base)
	if err != nil {
		if catalogMiss(ctx, err) {
			return domain.Movie{}, false, nil
		}
		return domain.Movie{}, false, err
	}
	if q.Year > 0 {
		var exact, near []omdb.SearchResult
		for _, hit := range hits {
			year, ok := releaseYear(hit.Year)
			switch {
			case !ok:
			case year == q.Year:
				exact = append(exact, hit)
			case year == q.Year-1 || year == q.Year+1:
				near = append(near, hit)
			}
		}
		hits = append(exact, near...)
	}
	for _, hit := range hits {
		movie, err := l.catalog.GetByID(ctx, hit.IMDbID)
		if err != nil {
			if catalogMiss(ctx, err) {
				continue
			}
			return domain.Movie{}, false, err
		}
		if q.Actor != "" && !actorMatches(movie.Actors, q.Actor) {
			continue
		}
		return movie, true, nil
	}
	return domain.Movie{}, false, nil
}

// reorderedSearch runs a keyword search and fetches the top hit after
// reordering: requested year first, else newest first for "recent" queries,
// else catalog order.
func (l *Lookup) reorderedSearch(ctx context.Context, q titles.Qualified) (domain.Movie, bool, error) {
	hits, err := l.catalog.Search(ctx, q.Base)
	if err != nil {
		if catalogMiss(ctx, err) {
			return domain.Movie{}, false, nil
		}
		return domain.Movie{}, false, err
	}
	if len(hits) == 0 {
		return domain.Movie{}, false, nil
	}
	switch {
	case q.Year > 0:
		slices.SortStableFunc(hits, func(a, b omdb.SearchResult) int {
			return boolRank(yearIs(a, q.Year)) - boolRank(yearIs(b, q.Year))
		})
	case q.Recent:
		slices.SortStableFunc(hits, func(a, b omdb.SearchResult) int {
			ya, _ := releaseYear(a.Year)
			yb, _ := releaseYear(b.Year)
			return yb - ya
		})
	}
	movie, err := l.catalog.GetByID(ctx, hits[0].IMDbID)
	if err != nil {
		if catalogMiss(ctx, err) {
			return domain.Movie{}, false, nil
		}
		return domain.Movie{}, false, err
	}
	return movie, true, nil
}

func yearIs(hit omdb.SearchResult, year int) bool {
	y, ok := releaseYear(hit.Year)
	return ok && y == year
}

// boolRank sorts true before false.
func boolRank(b bool) int {
	if b {
		return 0
	}
	return 1
}

type variation struct {
	title string
	year  string
}

// variations lists exact-title fetches derived from the candidate:
// neighbouring years, the title without a country word, and franchise
// or generic sequel spellings.
func variations(candidate string, q titles.Qualified) []variation {
	var out []variation
	if q.Year > 0 {
		out = append(out,
			variation{title: q.Base, year: strconv.Itoa(q.Year)},
			variation{title: q.Base, year: strconv.Itoa(q.Year - 1)},
			variation{title: q.Base, year: strconv.Itoa(q.Year + 1)},
		)
	}
	if stripped, ok := stripCountry(q.Base); ok {
		out = append(out, variation{title: stripped})
	}
	base := titles.BaseTitle(q.Base)
	if !strings.EqualFold(base, q.Base) {
		if entries, ok := titles.Franchise(base); ok {
			for _, entry := range entries[1:] {
				out = append(out, variation{title: entry})
			}
		}
		for _, sequel := range titles.GenericSequels(base, 0) {
			if !strings.EqualFold(sequel, candidate) {
				out = append(out, variation{title: sequel})
			}
		}
	}
	return out
}

// actorMatches checks the credited cast for name by substring, then by
// per-actor edit-distance similarity.
func actorMatches(cast, name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return true
	}
	cast = strings.ToLower(cast)
	if strings.Contains(cast, name) {
		return true
	}
	for _, actor := range strings.Split(cast, ",") {
		if similarity(strings.TrimSpace(actor), name) > actorSimilarityThreshold {
			return true
		}
	}
	return false
}

// similarity is 1 - distance/longer length, in [0, 1].
func similarity(a, b string) float64 {
	longer := max(len([]rune(a)), len([]rune(b)))
	if longer == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longer)
}

var _ Catalog = (*omdb.Client)(nil)
