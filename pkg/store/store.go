package store

import (
	"context"
	"strings"

	"bingehouse/pkg/domain"
)

// Store defines persistence for user-scoped movies, their recommendations,
// and serialized conversation memory.
type Store interface {
	MovieStore
	RecommendationStore
	ConversationStore
}

// MovieStore holds movie rows scoped by user id.
type MovieStore interface {
	// FindMovieByTitle is an exact, case-insensitive title match.
	FindMovieByTitle(ctx context.Context, userID, title string) (domain.Movie, bool, error)
	// SearchMoviesByTitle matches titles against a LIKE pattern ('%' and '_'
	// wildcards, '\' escapes), case-insensitively, in the store's natural order.
	SearchMoviesByTitle(ctx context.Context, userID, pattern string, limit int) ([]domain.Movie, error)
	GetMovieByIMDbID(ctx context.Context, userID, imdbID string) (domain.Movie, bool, error)
	// SaveMovie inserts a user-scoped copy, assigning ID and CreatedAt when empty.
	SaveMovie(ctx context.Context, movie domain.Movie) (domain.Movie, error)
	ListMoviesByUser(ctx context.Context, userID string, limit int) ([]domain.Movie, error)
}

// RecommendationStore holds at most one recommendation per movie row.
type RecommendationStore interface {
	GetRecommendation(ctx context.Context, movieID string) (domain.Recommendation, bool, error)
	SaveRecommendation(ctx context.Context, rec domain.Recommendation) (domain.Recommendation, error)
}

// ConversationStore persists conversation memory keyed by conversation id.
type ConversationStore interface {
	LoadConversation(ctx context.Context, id string) (*domain.ConversationMemory, bool, error)
	SaveConversation(ctx context.Context, mem *domain.ConversationMemory) error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// EscapeLike quotes LIKE wildcards in s so it matches literally inside a
// pattern built for SearchMoviesByTitle.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
