// Package app runs the chat pipeline: classify the turn, resolve a title,
// look the movie up and write a recommendation, or answer conversationally.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"bingehouse/internal/metrics"
	"bingehouse/internal/util"
	"bingehouse/pkg/ai"
	"bingehouse/pkg/domain"
	"bingehouse/pkg/store"
	"bingehouse/services/chain/internal/classify"
	"bingehouse/services/chain/internal/lookup"
	"bingehouse/services/chain/internal/memory"
	"bingehouse/services/chain/internal/recommend"
	"bingehouse/services/chain/internal/resolve"
	"bingehouse/services/chain/internal/titles"
)

const apologyMessage = "Sorry, something went wrong on my side. Please try again in a moment."

// Config wires the pipeline's collaborators.
type Config struct {
	Store   store.Store
	Catalog lookup.Catalog
	// Generator writes recommendations and conversational replies. Nil uses
	// the deterministic fallbacks.
	Generator ai.TextGenerator
	// Extractor overrides model title extraction. When nil and Generator is
	// set, Generator is used for extraction too.
	Extractor resolve.Extractor
	Memory    *memory.Manager
	Now       func() time.Time
}

type App struct {
	store       store.Store
	generator   ai.TextGenerator
	memory      *memory.Manager
	resolver    *resolve.Resolver
	lookup      *lookup.Lookup
	recommender *recommend.Generator
	now         func() time.Time
}

func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	extractor := cfg.Extractor
	if extractor == nil && cfg.Generator != nil {
		extractor = resolve.NewModelExtractor(cfg.Generator)
	}
	mem := cfg.Memory
	if mem == nil {
		mem = memory.NewManager(cfg.Store)
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &App{
		store:       cfg.Store,
		generator:   cfg.Generator,
		memory:      mem,
		resolver:    resolve.New(extractor),
		lookup:      lookup.New(cfg.Store, cfg.Catalog),
		recommender: recommend.New(cfg.Generator),
		now:         now,
	}, nil
}

// trace collects the per-request pipeline log returned to the client.
type trace struct {
	logger *slog.Logger
	lines  []string
}

func (t *trace) add(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	t.lines = append(t.lines, line)
	t.logger.Debug("chain step", "step", line)
}

// turn is the mutable state of one pipeline run.
type turn struct {
	req     Request
	userID  string
	mem     *domain.ConversationMemory
	tokens  int
	outcome string
	resp    Response
}

// ProcessQuery runs one chat turn. Validation failures return an error
// matching ErrInvalidRequest. Any other error matches ErrInternal and comes
// with an apologetic Response. Upstream failures never surface as errors.
func (a *App) ProcessQuery(ctx context.Context, req Request) (resp Response, err error) {
	if err := req.normalize(); err != nil {
		metrics.QueriesTotal.WithLabelValues("invalid").Inc()
		return Response{}, err
	}
	logger := util.LoggerFromContext(ctx).With("conversation_id", req.ConversationID)
	ctx = util.ContextWithLogger(ctx, logger)
	tr := &trace{logger: logger}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("chain panic", "panic", r, "stack", string(debug.Stack()))
			metrics.QueriesTotal.WithLabelValues("error").Inc()
			tr.add("internal error")
			resp = Response{Message: apologyMessage, Logs: tr.lines}
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	t := &turn{req: req, userID: req.userID()}
	t.mem = a.memory.Load(ctx, req.ConversationID)
	if t.mem.UserID == "" {
		t.mem.UserID = t.userID
	}
	if t.mem.SessionID == "" {
		t.mem.SessionID = req.SessionID
	}

	a.run(ctx, t, tr)

	now := a.now()
	t.mem.AddMessage(domain.RoleUser, req.Query, now)
	t.mem.AddMessage(domain.RoleAssistant, t.resp.Message, now)
	t.mem.AddTokens(t.tokens)
	a.memory.Save(ctx, t.mem)

	metrics.AddTokens(t.tokens)
	metrics.QueriesTotal.WithLabelValues(t.outcome).Inc()
	logger.Info("chain turn",
		"outcome", t.outcome,
		"turn", t.mem.TurnCount,
		"tokens", t.tokens,
	)

	t.resp.Logs = tr.lines
	t.resp.Conversation = ConversationStats{TurnCount: t.mem.TurnCount, TotalTokens: t.mem.TotalTokens}
	return t.resp, nil
}

func (a *App) run(ctx context.Context, t *turn, tr *trace) {
	cls := classify.Classify(t.req.Query, t.mem)
	metrics.ClassificationsTotal.WithLabelValues(string(cls.Kind)).Inc()
	tr.add("classified as %s (rule %s)", cls.Kind, cls.Rule)

	if cls.General {
		a.answerGeneral(ctx, t, tr, cls.Kind, cls.Similar)
		return
	}

	res := a.resolver.Resolve(ctx, t.req.Query, t.mem)
	t.tokens += res.Tokens
	metrics.ResolveStrategyTotal.WithLabelValues(string(res.Strategy)).Inc()
	switch {
	case res.Suppressed:
		tr.add("resolver suppressed lookup (%s)", res.Category)
		kind, similar := classify.KindRecommendation, res.Category == resolve.SuppressedSimilar
		if res.Category == resolve.SuppressedComparison {
			kind = classify.KindComparison
		}
		a.answerGeneral(ctx, t, tr, kind, similar)
		return
	case res.Sentinel != "":
		tr.add("extractor returned %s", res.Sentinel)
		a.answerGeneral(ctx, t, tr, sentinelKinds[res.Sentinel], res.Sentinel == resolve.SentinelSimilarRecommendation)
		return
	case len(res.Titles) == 0:
		tr.add("no title resolved")
		t.outcome = "unresolved"
		t.resp.Message = clarification(t.req.Query, t.mem)
		return
	}
	if res.Category != "" {
		tr.add("resolved via %s [%s]: %s", res.Strategy, res.Category, strings.Join(res.Titles, ", "))
	} else {
		tr.add("resolved via %s: %s", res.Strategy, strings.Join(res.Titles, ", "))
	}

	found, ok := a.lookup.Find(ctx, res.Titles, t.userID)
	if !ok {
		tr.add("lookup found nothing")
		t.outcome = "not_found"
		t.resp.Message = notFound(res.Titles[0])
		return
	}
	metrics.LookupSourceTotal.WithLabelValues(string(found.Source)).Inc()
	tr.add("lookup hit %s/%s: %s (%s)", found.Source, found.Layer, found.Movie.Title, found.Movie.Year)

	movie := a.ensureMovie(ctx, found, t.userID)
	rec, tokens := a.recommendationFor(ctx, movie, t.mem, tr)
	t.tokens += tokens

	t.mem.RememberMovie(domain.DiscussedMovie{
		Title:  movie.Title,
		Year:   movie.Year,
		Genre:  movie.Genre,
		Rating: movie.Rating,
	})

	display := movie
	display.Votes = domain.FormatVotes(movie.Votes)
	t.outcome = "found"
	t.resp.Message = rec.Recommendation
	t.resp.Movie = &display
	t.resp.Recommendation = &rec
}

func (a *App) answerGeneral(ctx context.Context, t *turn, tr *trace, kind classify.Kind, similar bool) {
	if kind == classify.KindPreference {
		for _, genre := range titles.GenresIn(t.req.Query) {
			t.mem.AddPreference(genre)
			tr.add("preference noted: %s", genre)
		}
	}
	reply, tokens := a.converse(ctx, t.req.Query, kind, similar, t.mem)
	t.tokens += tokens
	t.outcome = "general"
	t.resp.Message = reply
}

// ensureMovie returns the user's row for a catalog hit, creating it on first
// sight. Guests get the catalog record as is.
func (a *App) ensureMovie(ctx context.Context, found lookup.Result, userID string) domain.Movie {
	movie := found.Movie
	if userID == "" || found.Source == lookup.SourceStore {
		return movie
	}
	logger := util.LoggerFromContext(ctx)
	existing, ok, err := a.store.GetMovieByIMDbID(ctx, userID, movie.IMDbID)
	if err != nil {
		logger.Warn("find stored movie failed", "imdb_id", movie.IMDbID, "err", err)
	} else if ok {
		return existing
	}
	movie.ID = ""
	movie.UserID = userID
	movie.CreatedAt = time.Time{}
	saved, err := a.store.SaveMovie(ctx, movie)
	if err != nil {
		metrics.PersistFailuresTotal.Inc()
		logger.Error("save movie failed", "title", movie.Title, "err", err)
		return movie
	}
	return saved
}

// recommendationFor reuses a stored recommendation or generates and stores
// a new one.
func (a *App) recommendationFor(ctx context.Context, movie domain.Movie, mem *domain.ConversationMemory, tr *trace) (domain.Recommendation, int) {
	logger := util.LoggerFromContext(ctx)
	if movie.ID != "" {
		rec, ok, err := a.store.GetRecommendation(ctx, movie.ID)
		switch {
		case err != nil:
			logger.Warn("load recommendation failed", "movie_id", movie.ID, "err", err)
		case ok:
			metrics.RecommendationsTotal.WithLabelValues("cached").Inc()
			tr.add("reused stored recommendation")
			return rec, 0
		}
	}

	res := a.recommender.Generate(ctx, movie, mem)
	if res.Fallback {
		tr.add("recommendation from genre fallback")
	} else {
		tr.add("recommendation generated")
	}
	rec := res.Recommendation
	if movie.ID == "" || movie.UserID == "" {
		return rec, res.Tokens
	}
	saved, err := a.store.SaveRecommendation(ctx, rec)
	if err != nil {
		metrics.PersistFailuresTotal.Inc()
		logger.Error("save recommendation failed", "movie_id", movie.ID, "err", err)
		return rec, res.Tokens
	}
	return saved, res.Tokens
}

// ListMovies returns the user's stored movies with their recommendations.
func (a *App) ListMovies(ctx context.Context, userID string, limit int) ([]domain.MovieEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, &RequestError{Fields: []string{"userId is required"}}
	}
	movies, err := a.store.ListMoviesByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	entries := make([]domain.MovieEntry, 0, len(movies))
	for _, movie := range movies {
		movie.Votes = domain.FormatVotes(movie.Votes)
		entry := domain.MovieEntry{Movie: movie}
		rec, ok, err := a.store.GetRecommendation(ctx, movie.ID)
		if err != nil {
			return nil, fmt.Errorf("load recommendation: %w", err)
		}
		if ok {
			entry.Recommendation = &rec
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Conversation returns the memory for id, if any.
func (a *App) Conversation(ctx context.Context, id string) (*domain.ConversationMemory, bool, error) {
	if strings.TrimSpace(id) == "" {
		return nil, false, &RequestError{Fields: []string{"conversationId is required"}}
	}
	return a.memory.Get(ctx, id)
}

// Close waits for background persistence to finish.
func (a *App) Close(ctx context.Context) error {
	return a.memory.Flush(ctx)
}
