package domain

import (
	"fmt"
	"testing"
	"time"
)

func TestAddMessageEvictsOldestBeyondTen(t *testing.T) {
	mem := NewConversationMemory("conv-1")
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 11; i++ {
		mem.AddMessage(RoleUser, fmt.Sprintf("turn %d", i), start.Add(time.Duration(i)*time.Second))
	}
	if len(mem.Messages) != MaxMemoryMessages {
		t.Fatalf("messages = %d, want %d", len(mem.Messages), MaxMemoryMessages)
	}
	if mem.Messages[0].Text != "turn 1" {
		t.Fatalf("oldest message = %q, want %q", mem.Messages[0].Text, "turn 1")
	}
	if mem.Messages[9].Text != "turn 10" {
		t.Fatalf("newest message = %q, want %q", mem.Messages[9].Text, "turn 10")
	}
	if mem.TurnCount != 11 {
		t.Fatalf("turn count = %d, want 11", mem.TurnCount)
	}
}

func TestAssistantMessagesDoNotAdvanceTurns(t *testing.T) {
	mem := NewConversationMemory("conv-1")
	mem.AddMessage(RoleUser, "hi", time.Now())
	mem.AddMessage(RoleAssistant, "hello", time.Now())
	if mem.TurnCount != 1 {
		t.Fatalf("turn count = %d, want 1", mem.TurnCount)
	}
}

func TestRememberMovieBoundsAndOrder(t *testing.T) {
	mem := NewConversationMemory("conv-1")
	for i := 1; i <= 6; i++ {
		mem.RememberMovie(DiscussedMovie{Title: fmt.Sprintf("Movie %d", i), Genre: "Drama"})
	}
	if len(mem.DiscussedMovies) != MaxDiscussedMovies {
		t.Fatalf("discussed = %d, want %d", len(mem.DiscussedMovies), MaxDiscussedMovies)
	}
	if mem.DiscussedMovies[0].Title != "Movie 2" {
		t.Fatalf("oldest = %q, want Movie 2", mem.DiscussedMovies[0].Title)
	}
	last, ok := mem.LastMovie()
	if !ok || last.Title != "Movie 6" {
		t.Fatalf("last = %q, want Movie 6", last.Title)
	}
}

func TestRememberMovieMovesRepeatToFront(t *testing.T) {
	mem := NewConversationMemory("conv-1")
	mem.RememberMovie(DiscussedMovie{Title: "Inception"})
	mem.RememberMovie(DiscussedMovie{Title: "Heat"})
	mem.RememberMovie(DiscussedMovie{Title: "inception"})
	if len(mem.DiscussedMovies) != 2 {
		t.Fatalf("discussed = %d, want 2", len(mem.DiscussedMovies))
	}
	if got := mem.RecentTitles(2); got[0] != "inception" || got[1] != "Heat" {
		t.Fatalf("recent titles = %v", got)
	}
}

func TestPreferencesKeepThreeMostRecent(t *testing.T) {
	mem := NewConversationMemory("conv-1")
	for _, genre := range []string{"Horror", "Comedy", "Drama", "Horror", "Sci-Fi"} {
		mem.AddPreference(genre)
	}
	want := []string{"Drama", "Horror", "Sci-Fi"}
	if len(mem.Preferences) != len(want) {
		t.Fatalf("preferences = %v, want %v", mem.Preferences, want)
	}
	for i := range want {
		if mem.Preferences[i] != want[i] {
			t.Fatalf("preferences = %v, want %v", mem.Preferences, want)
		}
	}
}

func TestRememberMovieFeedsPrimaryGenre(t *testing.T) {
	mem := NewConversationMemory("conv-1")
	mem.RememberMovie(DiscussedMovie{Title: "28 Days Later", Genre: "Drama, Horror, Sci-Fi"})
	if len(mem.Preferences) != 1 || mem.Preferences[0] != "Drama" {
		t.Fatalf("preferences = %v, want [Drama]", mem.Preferences)
	}
	mem.RememberMovie(DiscussedMovie{Title: "Unknown", Genre: "N/A"})
	if len(mem.Preferences) != 1 {
		t.Fatalf("N/A genre should not be recorded: %v", mem.Preferences)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	mem := NewConversationMemory("conv-1")
	mem.AddMessage(RoleUser, "hi", time.Now())
	cp := mem.Clone()
	cp.AddMessage(RoleUser, "again", time.Now())
	if len(mem.Messages) != 1 {
		t.Fatalf("clone mutated original: %d messages", len(mem.Messages))
	}
}
