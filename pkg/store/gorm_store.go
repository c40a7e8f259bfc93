package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"bingehouse/pkg/domain"
)

const migrateLockID int64 = 24650331

const defaultListLimit = 100

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, migrate); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// NewGormStoreFromDialector opens any GORM dialector without the Postgres
// migration lock. Used with SQLite in tests and local tooling.
func NewGormStoreFromDialector(dialector gorm.Dialector) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func newGormLogger() gormlogger.Interface {
	return gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func migrate(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&MovieModel{}, &RecommendationModel{}, &ConversationModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindMovieByTitle returns the oldest user row whose title matches exactly,
// ignoring case.
func (s *GormStore) FindMovieByTitle(ctx context.Context, userID, title string) (domain.Movie, bool, error) {
	var model MovieModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(title) = ?", userID, strings.ToLower(strings.TrimSpace(title))).
		Order("created_at ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Movie{}, false, nil
		}
		return domain.Movie{}, false, err
	}
	return movieFromModel(model), true, nil
}

// SearchMoviesByTitle runs a case-insensitive LIKE against user rows.
func (s *GormStore) SearchMoviesByTitle(ctx context.Context, userID, pattern string, limit int) ([]domain.Movie, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var models []MovieModel
	if err := s.db.WithContext(ctx).
		Where(`user_id = ? AND LOWER(title) LIKE ? ESCAPE '\'`, userID, strings.ToLower(pattern)).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return moviesFromModels(models), nil
}

// GetMovieByIMDbID returns the user's copy of a catalog entry.
func (s *GormStore) GetMovieByIMDbID(ctx context.Context, userID, imdbID string) (domain.Movie, bool, error) {
	if strings.TrimSpace(imdbID) == "" {
		return domain.Movie{}, false, nil
	}
	var model MovieModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND imdb_id = ?", userID, imdbID).
		Order("created_at ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Movie{}, false, nil
		}
		return domain.Movie{}, false, err
	}
	return movieFromModel(model), true, nil
}

// SaveMovie inserts or updates a user-scoped movie row.
func (s *GormStore) SaveMovie(ctx context.Context, movie domain.Movie) (domain.Movie, error) {
	if strings.TrimSpace(movie.UserID) == "" {
		return domain.Movie{}, fmt.Errorf("save movie: user id required")
	}
	if movie.ID == "" {
		movie.ID = uuid.NewString()
	}
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now().UTC()
	}
	model := movieToModel(movie)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "year", "imdb_id", "poster", "rating", "votes", "plot", "director", "actors", "genre"}),
	}).Create(&model).Error
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

// ListMoviesByUser returns the user's movies, newest first.
func (s *GormStore) ListMoviesByUser(ctx context.Context, userID string, limit int) ([]domain.Movie, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var models []MovieModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return moviesFromModels(models), nil
}

// GetRecommendation returns the cached recommendation for a movie row.
func (s *GormStore) GetRecommendation(ctx context.Context, movieID string) (domain.Recommendation, bool, error) {
	var model RecommendationModel
	if err := s.db.WithContext(ctx).First(&model, "movie_id = ?", movieID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Recommendation{}, false, nil
		}
		return domain.Recommendation{}, false, err
	}
	return recommendationFromModel(model), true, nil
}

// SaveRecommendation stores the recommendation for a movie. When a row for the
// movie already exists it is kept and returned unchanged.
func (s *GormStore) SaveRecommendation(ctx context.Context, rec domain.Recommendation) (domain.Recommendation, error) {
	if strings.TrimSpace(rec.MovieID) == "" {
		return domain.Recommendation{}, fmt.Errorf("save recommendation: movie id required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	model := recommendationToModel(rec)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "movie_id"}},
		DoNothing: true,
	}).Create(&model).Error
	if err != nil {
		return domain.Recommendation{}, err
	}
	saved, ok, err := s.GetRecommendation(ctx, rec.MovieID)
	if err != nil {
		return domain.Recommendation{}, err
	}
	if !ok {
		return rec, nil
	}
	return saved, nil
}

// LoadConversation restores serialized conversation memory.
func (s *GormStore) LoadConversation(ctx context.Context, id string) (*domain.ConversationMemory, bool, error) {
	var model ConversationModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var mem domain.ConversationMemory
	if err := json.Unmarshal(model.State, &mem); err != nil {
		return nil, false, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	mem.ID = model.ID
	return &mem, true, nil
}

// SaveConversation upserts the whole memory snapshot.
func (s *GormStore) SaveConversation(ctx context.Context, mem *domain.ConversationMemory) error {
	if mem == nil || strings.TrimSpace(mem.ID) == "" {
		return fmt.Errorf("save conversation: id required")
	}
	state, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	now := time.Now().UTC()
	createdAt := mem.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	model := ConversationModel{
		ID:          mem.ID,
		UserID:      mem.UserID,
		SessionID:   mem.SessionID,
		State:       state,
		TurnCount:   mem.TurnCount,
		TotalTokens: mem.TotalTokens,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "session_id", "state", "turn_count", "total_tokens", "updated_at"}),
	}).Create(&model).Error
}

func movieToModel(m domain.Movie) MovieModel {
	return MovieModel{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Year:      m.Year,
		IMDbID:    m.IMDbID,
		Poster:    m.Poster,
		Rating:    m.Rating,
		Votes:     m.Votes,
		Plot:      m.Plot,
		Director:  m.Director,
		Actors:    m.Actors,
		Genre:     m.Genre,
		CreatedAt: m.CreatedAt,
	}
}

func movieFromModel(m MovieModel) domain.Movie {
	return domain.Movie{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Year:      m.Year,
		IMDbID:    m.IMDbID,
		Poster:    m.Poster,
		Rating:    m.Rating,
		Votes:     m.Votes,
		Plot:      m.Plot,
		Director:  m.Director,
		Actors:    m.Actors,
		Genre:     m.Genre,
		CreatedAt: m.CreatedAt,
	}
}

func moviesFromModels(models []MovieModel) []domain.Movie {
	res := make([]domain.Movie, 0, len(models))
	for _, m := range models {
		res = append(res, movieFromModel(m))
	}
	return res
}

func recommendationToModel(r domain.Recommendation) RecommendationModel {
	return RecommendationModel{
		ID:             r.ID,
		MovieID:        r.MovieID,
		UserID:         r.UserID,
		Recommendation: r.Recommendation,
		WorthWatching:  r.WorthWatching,
		CreatedAt:      r.CreatedAt,
	}
}

func recommendationFromModel(m RecommendationModel) domain.Recommendation {
	return domain.Recommendation{
		ID:             m.ID,
		MovieID:        m.MovieID,
		UserID:         m.UserID,
		Recommendation: m.Recommendation,
		WorthWatching:  m.WorthWatching,
		CreatedAt:      m.CreatedAt,
	}
}
