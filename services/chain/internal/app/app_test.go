package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bingehouse/pkg/ai"
	"bingehouse/pkg/domain"
	"bingehouse/pkg/omdb"
	"bingehouse/pkg/store"
	"bingehouse/services/chain/internal/resolve"
)

type fakeCatalog struct {
	movies map[string]domain.Movie
}

func (c *fakeCatalog) Search(context.Context, string) ([]omdb.SearchResult, error) {
	return nil, omdb.ErrNotFound
}

func (c *fakeCatalog) GetByTitle(_ context.Context, title, _ string) (domain.Movie, error) {
	m, ok := c.movies[strings.ToLower(title)]
	if !ok {
		return domain.Movie{}, omdb.ErrNotFound
	}
	return m, nil
}

func (c *fakeCatalog) GetByID(_ context.Context, id string) (domain.Movie, error) {
	for _, m := range c.movies {
		if m.IMDbID == id {
			return m, nil
		}
	}
	return domain.Movie{}, omdb.ErrNotFound
}

type fakeGenerator struct {
	text  string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(context.Context, ai.Request) (ai.Completion, error) {
	g.calls++
	if g.err != nil {
		return ai.Completion{}, g.err
	}
	return ai.Completion{Text: g.text, Tokens: 100}, nil
}

type fakeExtractor struct {
	extract func(query string) (resolve.Extraction, error)
}

func (f fakeExtractor) Extract(_ context.Context, req resolve.ExtractRequest) (resolve.Extraction, error) {
	return f.extract(req.Query)
}

var daysLater = domain.Movie{
	Title:  "28 Days Later",
	Year:   "2002",
	IMDbID: "tt0289043",
	Rating: "7.5",
	Votes:  "475123",
	Genre:  "Drama, Horror, Sci-Fi",
	Actors: "Cillian Murphy, Naomie Harris",
}

var toyStory4 = domain.Movie{
	Title:  "Toy Story 4",
	Year:   "2019",
	IMDbID: "tt1979376",
	Rating: "7.7",
	Genre:  "Animation, Adventure, Comedy",
}

func titleExtractor(title string, tokens int) fakeExtractor {
	return fakeExtractor{extract: func(string) (resolve.Extraction, error) {
		return resolve.Extraction{Title: title, Tokens: tokens}, nil
	}}
}

func newTestApp(t *testing.T, gen ai.TextGenerator, ext resolve.Extractor) (*App, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	a, err := New(Config{
		Store:     st,
		Catalog:   &fakeCatalog{movies: map[string]domain.Movie{"28 days later": daysLater, "toy story 4": toyStory4}},
		Generator: gen,
		Extractor: ext,
		Now:       func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.Close(ctx)
	})
	return a, st
}

func userID(s string) *string { return &s }

func TestProcessQueryValidation(t *testing.T) {
	a, _ := newTestApp(t, nil, nil)
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{name: "missing query", req: Request{ConversationID: "c1"}, want: "query is required"},
		{name: "blank query", req: Request{Query: "   ", ConversationID: "c1"}, want: "query is required"},
		{name: "missing conversation", req: Request{Query: "Heat"}, want: "conversationId is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.ProcessQuery(context.Background(), tc.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestProcessQueryLooksUpAndReusesRecommendation(t *testing.T) {
	gen := &fakeGenerator{text: `"28 Days Later" (2002) A ferocious, grimy survival horror. Anyone who likes their zombies fast will love it. Similar movies: Dawn of the Dead, [REC], Train to Busan.`}
	a, st := newTestApp(t, gen, titleExtractor("28 Days Later", 7))
	ctx := context.Background()
	req := Request{Query: "How is 28 Days Later", UserID: userID("u1"), ConversationID: "c1", SessionID: "s1"}

	first, err := a.ProcessQuery(ctx, req)
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if first.Movie == nil || first.Recommendation == nil {
		t.Fatalf("expected movie and recommendation, got %+v", first)
	}
	if first.Movie.ID == "" || first.Movie.UserID != "u1" {
		t.Fatalf("expected a stored user copy, got %+v", first.Movie)
	}
	if first.Movie.Votes != "475,123" {
		t.Fatalf("expected formatted votes, got %q", first.Movie.Votes)
	}
	if !first.Recommendation.WorthWatching || first.Message != first.Recommendation.Recommendation {
		t.Fatalf("unexpected recommendation: %+v", first.Recommendation)
	}
	if first.Conversation.TurnCount != 1 || first.Conversation.TotalTokens != 107 {
		t.Fatalf("unexpected stats: %+v", first.Conversation)
	}
	if len(first.Logs) == 0 {
		t.Fatalf("expected pipeline logs")
	}

	second, err := a.ProcessQuery(ctx, req)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one generation call, got %d", gen.calls)
	}
	if second.Recommendation.ID != first.Recommendation.ID || second.Recommendation.Recommendation != first.Recommendation.Recommendation {
		t.Fatalf("expected the stored recommendation, got %+v", second.Recommendation)
	}
	if second.Movie.ID != first.Movie.ID {
		t.Fatalf("expected the same movie row")
	}
	movies, err := st.ListMoviesByUser(ctx, "u1", 0)
	if err != nil || len(movies) != 1 {
		t.Fatalf("expected one movie row, got %d (%v)", len(movies), err)
	}
	if st.RecommendationCount() != 1 {
		t.Fatalf("expected one recommendation row, got %d", st.RecommendationCount())
	}
	if second.Conversation.TurnCount != 2 {
		t.Fatalf("expected turn 2, got %d", second.Conversation.TurnCount)
	}
}

func TestProcessQuerySimilarFollowsLastMovie(t *testing.T) {
	a, _ := newTestApp(t, nil, titleExtractor("28 Days Later", 0))
	ctx := context.Background()
	base := Request{UserID: userID("u1"), ConversationID: "c2"}

	base.Query = "How is 28 Days Later"
	if _, err := a.ProcessQuery(ctx, base); err != nil {
		t.Fatalf("lookup turn: %v", err)
	}
	base.Query = "recommend similar"
	resp, err := a.ProcessQuery(ctx, base)
	if err != nil {
		t.Fatalf("similar turn: %v", err)
	}
	if resp.Movie != nil {
		t.Fatalf("similar requests must not look a movie up")
	}
	if !strings.Contains(resp.Message, "28 Days Later") {
		t.Fatalf("expected reply to name the last movie, got %q", resp.Message)
	}
}

func TestProcessQuerySequelAfterLastEntryAsksForTitle(t *testing.T) {
	a, _ := newTestApp(t, nil, titleExtractor("Toy Story 4", 0))
	ctx := context.Background()
	base := Request{UserID: userID("u1"), ConversationID: "c-toy"}

	base.Query = "How is Toy Story 4"
	if resp, err := a.ProcessQuery(ctx, base); err != nil || resp.Movie == nil {
		t.Fatalf("lookup turn: resp=%+v err=%v", resp, err)
	}
	base.Query = "what about the sequel"
	resp, err := a.ProcessQuery(ctx, base)
	if err != nil {
		t.Fatalf("sequel turn: %v", err)
	}
	if resp.Movie != nil {
		t.Fatalf("expected no lookup past the last entry, got %+v", resp.Movie)
	}
	if !strings.Contains(resp.Message, "couldn't find a sequel to Toy Story 4") {
		t.Fatalf("unexpected reply: %q", resp.Message)
	}
}

func TestProcessQueryGuestDoesNotPersistMovies(t *testing.T) {
	a, st := newTestApp(t, nil, titleExtractor("28 Days Later", 0))
	resp, err := a.ProcessQuery(context.Background(), Request{Query: "How is 28 Days Later", ConversationID: "g1"})
	if err != nil {
		t.Fatalf("guest turn: %v", err)
	}
	if resp.Movie == nil || resp.Movie.ID != "" {
		t.Fatalf("expected an unsaved catalog movie, got %+v", resp.Movie)
	}
	if st.RecommendationCount() != 0 {
		t.Fatalf("guests should not store recommendations")
	}
	if !strings.Contains(resp.Message, "Similar movies:") {
		t.Fatalf("expected fallback recommendation, got %q", resp.Message)
	}
}

func TestProcessQueryNotFound(t *testing.T) {
	a, _ := newTestApp(t, nil, titleExtractor("Zzyzx Nowhere", 0))
	resp, err := a.ProcessQuery(context.Background(), Request{Query: "How is Zzyzx Nowhere", ConversationID: "c3"})
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if resp.Movie != nil || !strings.Contains(resp.Message, `"Zzyzx Nowhere"`) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestProcessQueryGeneralReplies(t *testing.T) {
	tests := []struct {
		name  string
		gen   *fakeGenerator
		query string
		want  string
	}{
		{name: "model reply", gen: &fakeGenerator{text: "Hey there!"}, query: "hello", want: "Hey there!"},
		{name: "fallback on error", gen: &fakeGenerator{err: errors.New("down")}, query: "hello", want: "I'm BingeHouse"},
		{name: "bare negative", gen: &fakeGenerator{err: errors.New("down")}, query: "nope", want: "No problem"},
		{name: "bare nah", gen: &fakeGenerator{err: errors.New("down")}, query: "nah", want: "No problem"},
		{name: "bare maybe", gen: &fakeGenerator{err: errors.New("down")}, query: "maybe", want: ""},
		{name: "comparison", gen: &fakeGenerator{err: errors.New("down")}, query: "Alien or Aliens", want: "Both have their fans"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ext := fakeExtractor{extract: func(string) (resolve.Extraction, error) {
				t.Fatalf("general queries must not reach extraction")
				return resolve.Extraction{}, nil
			}}
			a, _ := newTestApp(t, tc.gen, ext)
			resp, err := a.ProcessQuery(context.Background(), Request{Query: tc.query, ConversationID: "c-" + tc.name})
			if err != nil {
				t.Fatalf("turn: %v", err)
			}
			if !strings.Contains(resp.Message, tc.want) || resp.Movie != nil {
				t.Fatalf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestProcessQueryRecordsPreferences(t *testing.T) {
	a, _ := newTestApp(t, nil, nil)
	ctx := context.Background()
	if _, err := a.ProcessQuery(ctx, Request{Query: "I love horror movies", ConversationID: "c4"}); err != nil {
		t.Fatalf("turn: %v", err)
	}
	mem, ok, err := a.Conversation(ctx, "c4")
	if err != nil || !ok {
		t.Fatalf("expected conversation, ok=%v err=%v", ok, err)
	}
	if len(mem.Preferences) != 1 || mem.Preferences[0] != "Horror" {
		t.Fatalf("expected Horror preference, got %v", mem.Preferences)
	}
	if len(mem.Messages) != 2 || mem.Messages[1].Role != domain.RoleAssistant {
		t.Fatalf("expected user and assistant messages, got %+v", mem.Messages)
	}
}

func TestProcessQueryExtractorSentinel(t *testing.T) {
	ext := fakeExtractor{extract: func(string) (resolve.Extraction, error) {
		return resolve.Extraction{Sentinel: resolve.SentinelGeneralRecommendation, Tokens: 3}, nil
	}}
	a, _ := newTestApp(t, nil, ext)
	resp, err := a.ProcessQuery(context.Background(), Request{Query: "what are the hidden gems from korea lately", ConversationID: "c5"})
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if resp.Movie != nil || resp.Conversation.TotalTokens != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestProcessQueryRecoversPanics(t *testing.T) {
	ext := fakeExtractor{extract: func(string) (resolve.Extraction, error) {
		panic("boom")
	}}
	a, _ := newTestApp(t, nil, ext)
	resp, err := a.ProcessQuery(context.Background(), Request{Query: "How is 28 Days Later", ConversationID: "c6"})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if resp.Message != apologyMessage {
		t.Fatalf("expected apology, got %q", resp.Message)
	}
}

func TestListMovies(t *testing.T) {
	a, _ := newTestApp(t, nil, titleExtractor("28 Days Later", 0))
	ctx := context.Background()
	if _, err := a.ProcessQuery(ctx, Request{Query: "How is 28 Days Later", UserID: userID("u1"), ConversationID: "c7"}); err != nil {
		t.Fatalf("turn: %v", err)
	}
	entries, err := a.ListMovies(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Recommendation == nil || entries[0].Movie.Votes != "475,123" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if _, err := a.ListMovies(ctx, " ", 10); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
