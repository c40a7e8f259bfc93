package domain

import "time"

// WorthWatchingThreshold is the minimum catalog rating for a positive verdict.
const WorthWatchingThreshold = 7.0

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Movie is catalog metadata, either fetched from the external catalog or
// read back from a user-scoped row.
type Movie struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Title     string    `json:"title"`
	Year      string    `json:"year"`
	IMDbID    string    `json:"imdbId"`
	Poster    string    `json:"poster"`
	Rating    string    `json:"rating"`
	Votes     string    `json:"votes"`
	Plot      string    `json:"plot"`
	Director  string    `json:"director"`
	Actors    string    `json:"actors"`
	Genre     string    `json:"genre"`
	CreatedAt time.Time `json:"createdAt"`
}

type Recommendation struct {
	ID             string    `json:"id,omitempty"`
	MovieID        string    `json:"movieId,omitempty"`
	UserID         string    `json:"userId,omitempty"`
	Recommendation string    `json:"recommendation"`
	WorthWatching  bool      `json:"worthWatching"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ChatMessage is the client-facing message shape. UserID is nil for guests.
type ChatMessage struct {
	ID             string          `json:"id"`
	UserID         *string         `json:"userId"`
	Text           string          `json:"text"`
	IsUser         bool            `json:"isUser"`
	Movie          *Movie          `json:"movie,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// MovieEntry pairs a stored movie with its cached recommendation, if any.
type MovieEntry struct {
	Movie          Movie           `json:"movie"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}
