// Package lookup resolves candidate titles to catalog metadata, consulting
// the user's stored movies first and the external catalog second.
package lookup

import (
	"context"
	"errors"
	"strings"

	"bingehouse/internal/util"
	"bingehouse/pkg/domain"
	"bingehouse/pkg/omdb"
	"bingehouse/pkg/store"
	"bingehouse/services/chain/internal/titles"
)

// Catalog is the external movie database.
type Catalog interface {
	Search(ctx context.Context, keyword string) ([]omdb.SearchResult, error)
	GetByTitle(ctx context.Context, title, year string) (domain.Movie, error)
	GetByID(ctx context.Context, imdbID string) (domain.Movie, error)
}

type Source string

const (
	SourceStore   Source = "store"
	SourceCatalog Source = "catalog"
)

// Result is a resolved movie and where it came from.
type Result struct {
	Movie  domain.Movie
	Source Source
	// Title is the candidate that matched.
	Title string
	// Layer names the step that produced the match, e.g. "exact" or "search".
	Layer string
}

// Lookup finds movies for resolved titles.
type Lookup struct {
	movies  store.MovieStore
	catalog Catalog
}

// New builds a Lookup. movies may be nil, which skips the store layer.
func New(movies store.MovieStore, catalog Catalog) *Lookup {
	return &Lookup{movies: movies, catalog: catalog}
}

// Find tries each candidate in order and returns the first match. userID is
// empty for guests, whose lookups skip the store. Upstream failures are
// logged and treated as misses.
func (l *Lookup) Find(ctx context.Context, candidates []string, userID string) (Result, bool) {
	logger := util.LoggerFromContext(ctx)
	for _, candidate := range candidates {
		candidate = titles.Clean(candidate)
		if candidate == "" {
			continue
		}
		q := titles.ParseQualified(candidate)
		if userID != "" && l.movies != nil && !q.Recent {
			movie, layer, err := l.fromStore(ctx, userID, candidate, q)
			if err != nil {
				logger.Warn("store lookup failed", "title", candidate, "err", err)
			} else if layer != "" {
				return Result{Movie: movie, Source: SourceStore, Title: candidate, Layer: layer}, true
			}
		}
		if l.catalog == nil {
			continue
		}
		movie, layer, err := l.fromCatalog(ctx, candidate, q)
		if err != nil {
			logger.Warn("catalog lookup failed", "title", candidate, "err", err)
			continue
		}
		if layer != "" {
			return Result{Movie: movie, Source: SourceCatalog, Title: candidate, Layer: layer}, true
		}
	}
	return Result{}, false
}

// catalogMiss reports whether err leaves the catalog usable. Only an
// unreachable catalog stops the remaining layers; other API errors are logged
// and fall through to the next layer.
func catalogMiss(ctx context.Context, err error) bool {
	switch {
	case err == nil, errors.Is(err, omdb.ErrNotFound):
		return true
	case errors.Is(err, omdb.ErrUnavailable):
		return false
	}
	util.LoggerFromContext(ctx).Warn("catalog rejected request", "err", err)
	return true
}

// stripCountry removes a country adjective token from a title.
func stripCountry(title string) (string, bool) {
	adj, ok := titles.CountryIn(title)
	if !ok {
		return "", false
	}
	var kept []string
	for _, w := range strings.Fields(title) {
		if strings.EqualFold(strings.Trim(w, ",.()"), adj) {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " "), len(kept) > 0
}
