package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bingehouse/pkg/domain"
)

// MemoryStore keeps movies, recommendations and conversations in-process.
// Used for local runs, the operator CLI and tests.
type MemoryStore struct {
	mu            sync.RWMutex
	movies        map[string]domain.Movie
	orders        []string                         // movie ids in insertion order
	recs          map[string]domain.Recommendation // key: movie ID
	conversations map[string]*domain.ConversationMemory
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		movies:        make(map[string]domain.Movie),
		recs:          make(map[string]domain.Recommendation),
		conversations: make(map[string]*domain.ConversationMemory),
	}
}

func (m *MemoryStore) FindMovieByTitle(_ context.Context, userID, title string) (domain.Movie, bool, error) {
	title = strings.TrimSpace(title)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.orders {
		movie := m.movies[id]
		if movie.UserID == userID && strings.EqualFold(movie.Title, title) {
			return movie, true, nil
		}
	}
	return domain.Movie{}, false, nil
}

func (m *MemoryStore) SearchMoviesByTitle(_ context.Context, userID, pattern string, limit int) ([]domain.Movie, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Movie
	for _, id := range m.orders {
		movie := m.movies[id]
		if movie.UserID != userID || !likeMatch(strings.ToLower(movie.Title), strings.ToLower(pattern)) {
			continue
		}
		res = append(res, movie)
		if len(res) == limit {
			break
		}
	}
	return res, nil
}

func (m *MemoryStore) GetMovieByIMDbID(_ context.Context, userID, imdbID string) (domain.Movie, bool, error) {
	if strings.TrimSpace(imdbID) == "" {
		return domain.Movie{}, false, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.orders {
		movie := m.movies[id]
		if movie.UserID == userID && movie.IMDbID == imdbID {
			return movie, true, nil
		}
	}
	return domain.Movie{}, false, nil
}

func (m *MemoryStore) SaveMovie(_ context.Context, movie domain.Movie) (domain.Movie, error) {
	if strings.TrimSpace(movie.UserID) == "" {
		return domain.Movie{}, fmt.Errorf("save movie: user id required")
	}
	if movie.ID == "" {
		movie.ID = uuid.NewString()
	}
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.movies[movie.ID]; !exists {
		m.orders = append(m.orders, movie.ID)
	}
	m.movies[movie.ID] = movie
	return movie, nil
}

// ListMoviesByUser returns the user's movies, newest first.
func (m *MemoryStore) ListMoviesByUser(_ context.Context, userID string, limit int) ([]domain.Movie, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Movie
	for i := len(m.orders) - 1; i >= 0 && len(res) < limit; i-- {
		movie := m.movies[m.orders[i]]
		if movie.UserID == userID {
			res = append(res, movie)
		}
	}
	return res, nil
}

func (m *MemoryStore) GetRecommendation(_ context.Context, movieID string) (domain.Recommendation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[movieID]
	return rec, ok, nil
}

// SaveRecommendation keeps one recommendation per movie; later saves return
// the stored row unchanged.
func (m *MemoryStore) SaveRecommendation(_ context.Context, rec domain.Recommendation) (domain.Recommendation, error) {
	if strings.TrimSpace(rec.MovieID) == "" {
		return domain.Recommendation{}, fmt.Errorf("save recommendation: movie id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.recs[rec.MovieID]; ok {
		return existing, nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.recs[rec.MovieID] = rec
	return rec, nil
}

func (m *MemoryStore) LoadConversation(_ context.Context, id string) (*domain.ConversationMemory, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mem, ok := m.conversations[id]
	if !ok {
		return nil, false, nil
	}
	return mem.Clone(), true, nil
}

func (m *MemoryStore) SaveConversation(_ context.Context, mem *domain.ConversationMemory) error {
	if mem == nil || strings.TrimSpace(mem.ID) == "" {
		return fmt.Errorf("save conversation: id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[mem.ID] = mem.Clone()
	return nil
}

// RecommendationCount reports stored recommendation rows.
func (m *MemoryStore) RecommendationCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.recs)
}

// likeMatch evaluates a SQL LIKE pattern: '%' matches any run, '_' one rune
// and '\' makes the next rune literal. Both inputs must already be lower-cased.
func likeMatch(s, pattern string) bool {
	return likeRunes([]rune(s), []rune(pattern))
}

func likeRunes(s, p []rune) bool {
	for len(p) > 0 {
		switch p[0] {
		case '%':
			for len(p) > 0 && p[0] == '%' {
				p = p[1:]
			}
			if len(p) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if likeRunes(s[i:], p) {
					return true
				}
			}
			return false
		case '_':
			if len(s) == 0 {
				return false
			}
		case '\\':
			if len(p) > 1 {
				p = p[1:]
			}
			fallthrough
		default:
			if len(s) == 0 || s[0] != p[0] {
				return false
			}
		}
		s, p = s[1:], p[1:]
	}
	return len(s) == 0
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
