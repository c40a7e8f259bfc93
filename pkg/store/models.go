package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type MovieModel struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"not null;index;index:idx_movie_user_imdb,priority:1"`
	Title     string `gorm:"not null;index"`
	Year      string
	IMDbID    string `gorm:"column:imdb_id;index:idx_movie_user_imdb,priority:2"`
	Poster    string
	Rating    string
	Votes     string
	Plot      string `gorm:"type:text"`
	Director  string
	Actors    string
	Genre     string
	CreatedAt time.Time `gorm:"not null;index"`
}

type RecommendationModel struct {
	ID             string    `gorm:"primaryKey"`
	MovieID        string    `gorm:"not null;uniqueIndex"`
	UserID         string    `gorm:"not null;index"`
	Recommendation string    `gorm:"type:text;not null"`
	WorthWatching  bool      `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

type ConversationModel struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index"`
	SessionID   string
	State       datatypes.JSON `gorm:"not null"`
	TurnCount   int            `gorm:"not null"`
	TotalTokens int            `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null;index"`
}
