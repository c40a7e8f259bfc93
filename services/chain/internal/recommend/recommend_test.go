package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bingehouse/pkg/ai"
	"bingehouse/pkg/domain"
)

type fakeGenerator struct {
	text  string
	err   error
	calls int
	last  ai.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req ai.Request) (ai.Completion, error) {
	g.calls++
	g.last = req
	if g.err != nil {
		return ai.Completion{}, g.err
	}
	return ai.Completion{Text: g.text, Tokens: 42}, nil
}

var heat = domain.Movie{ID: "m1", UserID: "u1", Title: "Heat", Year: "1995", Rating: "8.3", Genre: "Action, Crime, Drama", Director: "Michael Mann"}

func TestGenerateUsesModel(t *testing.T) {
	gen := &fakeGenerator{text: `"Heat" (1995) A tense crime epic. Fans of slow-burn thrillers will love it. Similar movies: Collateral, Thief, The Insider.`}
	mem := domain.NewConversationMemory("c1")
	mem.AddPreference("Thriller")
	mem.RememberMovie(domain.DiscussedMovie{Title: "Ronin", Genre: "Action"})

	res := New(gen).Generate(context.Background(), heat, mem)
	if res.Fallback {
		t.Fatalf("expected model output")
	}
	if res.Tokens != 42 {
		t.Fatalf("expected tokens 42, got %d", res.Tokens)
	}
	rec := res.Recommendation
	if rec.MovieID != "m1" || rec.UserID != "u1" || !rec.WorthWatching {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !strings.HasPrefix(rec.Recommendation, `"Heat" (1995)`) {
		t.Fatalf("unexpected text: %q", rec.Recommendation)
	}
	for _, want := range []string{"Thriller", "Previously discussed: Ronin", "Genre: Action, Crime, Drama"} {
		if !strings.Contains(gen.last.UserPrompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, gen.last.UserPrompt)
		}
	}
}

func TestGenerateFallsBackOnError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	res := New(gen).Generate(context.Background(), heat, nil)
	if !res.Fallback || res.Tokens != 0 {
		t.Fatalf("expected fallback, got %+v", res)
	}
	if !strings.Contains(res.Recommendation.Recommendation, "Similar movies: Mad Max: Fury Road, John Wick, Die Hard") {
		t.Fatalf("unexpected fallback: %q", res.Recommendation.Recommendation)
	}
}

func TestGenerateWithoutModel(t *testing.T) {
	res := New(nil).Generate(context.Background(), heat, nil)
	if !res.Fallback || res.Recommendation.Recommendation == "" {
		t.Fatalf("expected fallback text, got %+v", res)
	}
}

func TestWorthWatchingThreshold(t *testing.T) {
	tests := []struct {
		rating string
		want   bool
	}{
		{"8.5", true},
		{"7.0", true},
		{"6.9", false},
		{"N/A", false},
		{"", false},
		{"great", false},
	}
	for _, tc := range tests {
		m := heat
		m.Rating = tc.rating
		res := New(nil).Generate(context.Background(), m, nil)
		if res.Recommendation.WorthWatching != tc.want {
			t.Fatalf("rating %q: worth=%v, want %v", tc.rating, res.Recommendation.WorthWatching, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "adds header",
			in:   "A tense crime epic. Similar movies: Thief, Ronin, Collateral.",
			want: `"Heat" (1995) A tense crime epic. Similar movies: Thief, Ronin, Collateral.`,
		},
		{
			name: "keeps existing header",
			in:   `"Heat" (1995) Great.`,
			want: `"Heat" (1995) Great.`,
		},
		{
			name: "drops repeated similar clause",
			in:   `"Heat" Great. Similar movies: Thief, Ronin, Collateral. Similar movies: Heat, Heat, Heat.`,
			want: `"Heat" Great. Similar movies: Thief, Ronin, Collateral.`,
		},
		{
			name: "collapses whitespace",
			in:   "  \"Heat\"\n\n  Great.  ",
			want: `"Heat" Great.`,
		},
		{name: "empty", in: "   ", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalize(tc.in, heat); got != tc.want {
				t.Fatalf("normalize() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	short := strings.Repeat("a", 600)
	if got := Truncate(short); got != short {
		t.Fatalf("600 characters should be kept")
	}

	sentence := strings.Repeat("b", 249) + "." + strings.Repeat("c", 400)
	if got := Truncate(sentence); got != strings.Repeat("b", 249)+"." {
		t.Fatalf("expected cut at full stop, got %d chars", len(got))
	}

	early := strings.Repeat("d", 99) + "." + strings.Repeat("e", 600)
	got := Truncate(early)
	if len(got) != 600 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected hard cut with ellipsis, got %d chars", len(got))
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name  string
		movie domain.Movie
		want  []string
	}{
		{
			name:  "genre table",
			movie: domain.Movie{Title: "Hereditary", Year: "2018", Rating: "7.3", Genre: "Horror, Mystery"},
			want:  []string{`"Hereditary" (2018)`, "well worth your time", "7.3/10", "horror movie", "Similar movies: Get Out, The Shining, The Shawshank Redemption"},
		},
		{
			name:  "low rating",
			movie: domain.Movie{Title: "Morbius", Year: "2022", Rating: "5.2", Genre: "Action"},
			want:  []string{"tempered expectations", "Similar movies: Mad Max: Fury Road, John Wick, Die Hard"},
		},
		{
			name:  "unknown genre uses defaults",
			movie: domain.Movie{Title: "Some Film", Rating: "N/A", Genre: "Western"},
			want:  []string{`"Some Film" gets a more mixed reception`, "western movie", "Similar movies: The Shawshank Redemption, The Dark Knight, Inception"},
		},
		{
			name:  "default list skips the movie",
			movie: domain.Movie{Title: "Inception", Year: "2010", Rating: "8.8"},
			want:  []string{"Similar movies: The Shawshank Redemption, The Dark Knight, Pulp Fiction"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Fallback(tc.movie)
			for _, want := range tc.want {
				if !strings.Contains(got, want) {
					t.Fatalf("fallback %q missing %q", got, want)
				}
			}
		})
	}
}
