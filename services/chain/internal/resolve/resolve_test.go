package resolve

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"bingehouse/pkg/ai"
	"bingehouse/pkg/domain"
)

type fakeExtractor struct {
	out   Extraction
	err   error
	calls int
	last  ExtractRequest
}

func (f *fakeExtractor) Extract(_ context.Context, req ExtractRequest) (Extraction, error) {
	f.calls++
	f.last = req
	return f.out, f.err
}

func memoryWith(movies ...domain.DiscussedMovie) *domain.ConversationMemory {
	mem := domain.NewConversationMemory("c1")
	for _, m := range movies {
		mem.AddMessage(domain.RoleUser, "How is "+m.Title, time.Now())
		mem.AddMessage(domain.RoleAssistant, "It's good.", time.Now())
		mem.RememberMovie(m)
	}
	return mem
}

func TestResolveContextual(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		mem      *domain.ConversationMemory
		want     []string
		category string
	}{
		{
			name:     "static sequel map wins over generic generator",
			query:    "what about the sequel?",
			mem:      memoryWith(domain.DiscussedMovie{Title: "Wonder Woman", Year: "2017", Genre: "Action"}),
			want:     []string{"Wonder Woman 1984"},
			category: "sequel",
		},
		{
			name:     "sequel skips discussed entries",
			query:    "and the sequel?",
			mem:      memoryWith(domain.DiscussedMovie{Title: "28 Weeks Later"}, domain.DiscussedMovie{Title: "28 Days Later"}),
			want:     []string{"28 Years Later"},
			category: "sequel",
		},
		{
			name:     "sequel wording after the last entry of a known series",
			query:    "what about the sequel",
			mem:      memoryWith(domain.DiscussedMovie{Title: "Toy Story 4", Year: "2019"}),
			want:     nil,
			category: "sequel",
		},
		{
			name:     "numbered entry after its first film",
			query:    "how is the godfather part ii",
			mem:      memoryWith(domain.DiscussedMovie{Title: "The Godfather", Year: "1972"}),
			want:     []string{"The Godfather Part II"},
			category: "sequel",
		},
		{
			name:     "colon subtitle after its first film",
			query:    "Dune: Part Two",
			mem:      memoryWith(domain.DiscussedMovie{Title: "Dune", Year: "2021"}),
			want:     []string{"Dune: Part Two"},
			category: "sequel",
		},
		{
			name:     "generic sequel for unknown franchise",
			query:    "is there a sequel",
			mem:      memoryWith(domain.DiscussedMovie{Title: "The Grey", Year: "2011"}),
			want:     []string{"The Grey 2"},
			category: "sequel",
		},
		{
			name:     "clarification adds qualifier",
			query:    "no, the korean one",
			mem:      memoryWith(domain.DiscussedMovie{Title: "Oldboy", Year: "2013"}),
			want:     []string{"Oldboy Korean"},
			category: "clarification",
		},
		{
			name:     "year specific",
			query:    "the 2003 one",
			mem:      memoryWith(domain.DiscussedMovie{Title: "Oldboy", Year: "2013"}),
			want:     []string{"Oldboy 2003"},
			category: "year",
		},
		{
			name:     "original",
			query:    "what about the original",
			mem:      memoryWith(domain.DiscussedMovie{Title: "Aliens", Year: "1986"}),
			want:     []string{"Alien"},
			category: "original",
		},
		{
			name:     "recent with nothing named",
			query:    "is there a recent one",
			mem:      memoryWith(domain.DiscussedMovie{Title: "Dune (1984)"}),
			want:     []string{"recent Dune"},
			category: "recent",
		},
		{
			name:     "recent with a named title needs no history",
			query:    "recent mission impossible",
			want:     []string{"recent mission impossible"},
			category: "recent",
		},
		{
			name:     "direct reference",
			query:    "is that movie any good",
			mem:      memoryWith(domain.DiscussedMovie{Title: "Heat"}),
			want:     []string{"Heat"},
			category: "direct-reference",
		},
		{
			name:     "direct mention of an earlier title",
			query:    "go back to heat for a second",
			mem:      memoryWith(domain.DiscussedMovie{Title: "Heat"}, domain.DiscussedMovie{Title: "Alien"}),
			want:     []string{"Heat"},
			category: "direct-mention",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &fakeExtractor{out: Extraction{Title: "Should Not Be Used"}}
			got := New(ext).Resolve(context.Background(), tt.query, tt.mem)
			if !reflect.DeepEqual(got.Titles, tt.want) || got.Category != tt.category || got.Strategy != StrategyContextual {
				t.Fatalf("Resolve(%q) = %+v, want titles %v category %s", tt.query, got, tt.want, tt.category)
			}
			if ext.calls != 0 {
				t.Fatalf("extractor should not be called when a contextual rule matches")
			}
		})
	}
}

func TestResolveLongerTitleIsNotTheDiscussedOne(t *testing.T) {
	tests := []struct {
		query string
		last  string
		want  string
	}{
		{"how is Toy Story 3", "Toy Story", "Toy Story 3"},
		{"tell me about Alien 3", "Alien", "Alien 3"},
		{"how is John Wick: Chapter 4", "John Wick", "John Wick: Chapter 4"},
	}
	for _, tt := range tests {
		got := New(nil).Resolve(context.Background(), tt.query, memoryWith(domain.DiscussedMovie{Title: tt.last}))
		if got.Strategy == StrategyContextual || len(got.Titles) != 1 || got.Titles[0] != tt.want {
			t.Fatalf("Resolve(%q) after %q = %+v, want %q", tt.query, tt.last, got, tt.want)
		}
	}
}

func TestResolveKnownTitleThatReadsLikeAComparison(t *testing.T) {
	mem := memoryWith(domain.DiscussedMovie{Title: "Sicario"})
	for query, want := range map[string]string{
		"how is hell or high water?": "Hell or High Water",
		"Scary Movie":                "Scary Movie",
	} {
		got := New(nil).Resolve(context.Background(), query, mem)
		if got.Suppressed || len(got.Titles) != 1 || got.Titles[0] != want {
			t.Fatalf("Resolve(%q) = %+v, want %q", query, got, want)
		}
	}
	if got := New(nil).Resolve(context.Background(), "hell or high water or sicario", mem); !got.Suppressed {
		t.Fatalf("expected a real comparison to stay suppressed, got %+v", got)
	}
}

func TestResolveBypassKeepsQualifiers(t *testing.T) {
	ext := &fakeExtractor{out: Extraction{Title: "Oldboy"}}
	r := New(ext)
	for query, want := range map[string]string{
		"Oldboy 2003":                  "Oldboy 2003",
		"how is Heat with Al Pacino?":  "Heat with Al Pacino",
		"Is Dune 2021 worth watching?": "Dune 2021",
	} {
		got := r.Resolve(context.Background(), query, nil)
		if got.Strategy != StrategyBypass || len(got.Titles) != 1 || got.Titles[0] != want {
			t.Fatalf("Resolve(%q) = %+v, want bypass %q", query, got, want)
		}
	}
	if ext.calls != 0 {
		t.Fatalf("bypass should not call the extractor")
	}
}

func TestResolveSuppressesRecommendationIntent(t *testing.T) {
	mem := memoryWith(domain.DiscussedMovie{Title: "Alien", Genre: "Horror, Sci-Fi", Rating: "8.5"})
	cases := map[string]string{
		"recommend similar":                SuppressedSimilar,
		"movies like that please":          SuppressedSimilar,
		"which is better, Alien or Aliens": SuppressedComparison,
		"can you recommend a good movie":   SuppressedRecommendation,
	}
	for query, category := range cases {
		got := New(nil).Resolve(context.Background(), query, mem)
		if !got.Suppressed || !got.General() || len(got.Titles) != 0 || got.Category != category {
			t.Fatalf("Resolve(%q) = %+v, want suppressed (%s)", query, got, category)
		}
	}
}

func TestResolveUsesModelExtraction(t *testing.T) {
	mem := memoryWith(domain.DiscussedMovie{Title: "Heat"}, domain.DiscussedMovie{Title: "Ronin"}, domain.DiscussedMovie{Title: "Collateral"})
	ext := &fakeExtractor{out: Extraction{Title: "28 Days Later", Tokens: 17}}
	got := New(ext).Resolve(context.Background(), "the zombie film where cillian murphy wakes up", mem)
	if got.Strategy != StrategyModel || got.Titles[0] != "28 Days Later" || got.Tokens != 17 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(ext.last.Turns) != 4 {
		t.Fatalf("expected 4 recent turns, got %d", len(ext.last.Turns))
	}
	if !reflect.DeepEqual(ext.last.RecentTitles, []string{"Collateral", "Ronin"}) {
		t.Fatalf("expected 2 most recent titles, got %v", ext.last.RecentTitles)
	}
}

func TestResolveSentinelMeansNoTitle(t *testing.T) {
	ext := &fakeExtractor{out: Extraction{Sentinel: SentinelGeneralRecommendation, Tokens: 5}}
	got := New(ext).Resolve(context.Background(), "hmm what would be fun tonight", nil)
	if len(got.Titles) != 0 || got.Sentinel != SentinelGeneralRecommendation || !got.General() {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestResolveFallsBackToRegexOnExtractorError(t *testing.T) {
	ext := &fakeExtractor{err: errors.New("quota exceeded")}
	tests := map[string]string{
		"How is 28 Days Later":         "28 Days Later",
		"tell me about Parasite":       "Parasite",
		`have you heard of "The Host"`: "The Host",
		"Inception":                    "Inception",
		"can you recommend Heat":       "Heat",
	}
	for query, want := range tests {
		got := New(ext).Resolve(context.Background(), query, nil)
		if got.Strategy != StrategyRegex || len(got.Titles) != 1 || got.Titles[0] != want {
			t.Fatalf("Resolve(%q) = %+v, want regex %q", query, got, want)
		}
	}
}

func TestResolveReturnsNothingForStopWords(t *testing.T) {
	for _, query := range []string{"it", "the movie", "ok"} {
		got := New(nil).Resolve(context.Background(), query, nil)
		if len(got.Titles) != 0 || got.Strategy != StrategyNone {
			t.Fatalf("Resolve(%q) = %+v, want no titles", query, got)
		}
	}
}

type fakeGenerator struct {
	text string
	req  ai.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req ai.Request) (ai.Completion, error) {
	g.req = req
	return ai.Completion{Text: g.text, Tokens: 12}, nil
}

func TestModelExtractorParsesOutput(t *testing.T) {
	tests := []struct {
		text     string
		title    string
		sentinel Sentinel
	}{
		{"Title: \"Inception\"\nBecause the user asked.", "Inception", ""},
		{"similar_recommendation.", "", SentinelSimilarRecommendation},
		{"COMPARISON_REQUEST", "", SentinelComparison},
		{"NONE", "", ""},
		{"Oldboy 2003", "Oldboy 2003", ""},
	}
	for _, tt := range tests {
		gen := &fakeGenerator{text: tt.text}
		got, err := NewModelExtractor(gen).Extract(context.Background(), ExtractRequest{
			Query:        "what about it",
			Turns:        []domain.ConversationMessage{{Role: domain.RoleUser, Text: "How is Heat"}},
			RecentTitles: []string{"Heat"},
		})
		if err != nil {
			t.Fatalf("extract: %v", err)
		}
		if got.Title != tt.title || got.Sentinel != tt.sentinel || got.Tokens != 12 {
			t.Fatalf("Extract(%q) = %+v", tt.text, got)
		}
		if !strings.Contains(gen.req.UserPrompt, "Recently discussed movies: Heat") || !strings.Contains(gen.req.UserPrompt, "user: How is Heat") {
			t.Fatalf("prompt missing context: %q", gen.req.UserPrompt)
		}
		if gen.req.Temperature != 0 || gen.req.MaxTokens != 40 {
			t.Fatalf("unexpected request settings: %+v", gen.req)
		}
	}
}
