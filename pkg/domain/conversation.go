package domain

import (
	"strings"
	"time"
)

// Conversation memory bounds. Oldest entries are evicted first.
const (
	MaxMemoryMessages   = 10
	MaxDiscussedMovies  = 5
	MaxPreferenceGenres = 3
)

type ConversationMessage struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// DiscussedMovie is the summary of a movie kept in conversation memory.
type DiscussedMovie struct {
	Title  string `json:"title"`
	Year   string `json:"year,omitempty"`
	Genre  string `json:"genre"`
	Rating string `json:"rating"`
}

// ConversationMemory is the bounded per-conversation state used by the chain.
type ConversationMemory struct {
	ID              string                `json:"id"`
	UserID          string                `json:"userId,omitempty"`
	SessionID       string                `json:"sessionId,omitempty"`
	Messages        []ConversationMessage `json:"messages"`
	DiscussedMovies []DiscussedMovie      `json:"discussedMovies"`
	Preferences     []string              `json:"preferences"`
	TotalTokens     int                   `json:"totalTokens"`
	TurnCount       int                   `json:"turnCount"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// NewConversationMemory returns empty memory for a conversation id.
func NewConversationMemory(id string) *ConversationMemory {
	now := time.Now().UTC()
	return &ConversationMemory{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends a turn. User turns advance the turn counter.
func (m *ConversationMemory) AddMessage(role Role, text string, at time.Time) {
	m.Messages = append(m.Messages, ConversationMessage{Role: role, Text: text, Timestamp: at})
	if len(m.Messages) > MaxMemoryMessages {
		m.Messages = m.Messages[len(m.Messages)-MaxMemoryMessages:]
	}
	if role == RoleUser {
		m.TurnCount++
	}
	m.UpdatedAt = at
}

// AddTokens accumulates model usage.
func (m *ConversationMemory) AddTokens(n int) {
	if n > 0 {
		m.TotalTokens += n
	}
}

// RememberMovie records a discussed movie. A title already present moves to
// the most recent slot instead of being duplicated. The primary genre feeds
// the preference list.
func (m *ConversationMemory) RememberMovie(movie DiscussedMovie) {
	title := strings.TrimSpace(movie.Title)
	if title == "" {
		return
	}
	movie.Title = title
	kept := m.DiscussedMovies[:0:0]
	for _, existing := range m.DiscussedMovies {
		if !strings.EqualFold(existing.Title, title) {
			kept = append(kept, existing)
		}
	}
	kept = append(kept, movie)
	if len(kept) > MaxDiscussedMovies {
		kept = kept[len(kept)-MaxDiscussedMovies:]
	}
	m.DiscussedMovies = kept
	if genre := PrimaryGenre(movie.Genre); genre != "" {
		m.AddPreference(genre)
	}
}

// AddPreference records a preferred genre, most recent wins.
func (m *ConversationMemory) AddPreference(genre string) {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return
	}
	kept := m.Preferences[:0:0]
	for _, existing := range m.Preferences {
		if !strings.EqualFold(existing, genre) {
			kept = append(kept, existing)
		}
	}
	kept = append(kept, genre)
	if len(kept) > MaxPreferenceGenres {
		kept = kept[len(kept)-MaxPreferenceGenres:]
	}
	m.Preferences = kept
}

// LastMovie returns the most recently discussed movie.
func (m *ConversationMemory) LastMovie() (DiscussedMovie, bool) {
	if m == nil || len(m.DiscussedMovies) == 0 {
		return DiscussedMovie{}, false
	}
	return m.DiscussedMovies[len(m.DiscussedMovies)-1], true
}

// HasDiscussed reports whether a title was discussed in this conversation.
func (m *ConversationMemory) HasDiscussed(title string) bool {
	if m == nil {
		return false
	}
	for _, movie := range m.DiscussedMovies {
		if strings.EqualFold(movie.Title, strings.TrimSpace(title)) {
			return true
		}
	}
	return false
}

// RecentMessages returns up to n of the latest messages, oldest first.
func (m *ConversationMemory) RecentMessages(n int) []ConversationMessage {
	if m == nil || n <= 0 || len(m.Messages) == 0 {
		return nil
	}
	if n > len(m.Messages) {
		n = len(m.Messages)
	}
	out := make([]ConversationMessage, n)
	copy(out, m.Messages[len(m.Messages)-n:])
	return out
}

// RecentTitles returns up to n discussed titles, newest first.
func (m *ConversationMemory) RecentTitles(n int) []string {
	if m == nil || n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := len(m.DiscussedMovies) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.DiscussedMovies[i].Title)
	}
	return out
}

// Clone returns a deep copy safe to hand to another goroutine.
func (m *ConversationMemory) Clone() *ConversationMemory {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Messages = append([]ConversationMessage(nil), m.Messages...)
	cp.DiscussedMovies = append([]DiscussedMovie(nil), m.DiscussedMovies...)
	cp.Preferences = append([]string(nil), m.Preferences...)
	return &cp
}

// PrimaryGenre returns the first entry of a comma-separated genre list.
func PrimaryGenre(genre string) string {
	first, _, _ := strings.Cut(genre, ",")
	first = strings.TrimSpace(first)
	if strings.EqualFold(first, "N/A") {
		return ""
	}
	return first
}
