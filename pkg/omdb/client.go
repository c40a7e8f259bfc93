// Package omdb is a small client for the OMDb catalog API: keyword search
// and title / id detail fetches.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"bingehouse/pkg/domain"
)

const (
	defaultBaseURL           = "https://www.omdbapi.com/"
	defaultRequestsPerSecond = 10
	breakerFailureThreshold  = 5
)

var (
	// ErrNotFound is returned when the catalog reports no match.
	ErrNotFound = errors.New("omdb: movie not found")
	// ErrUnavailable wraps transport failures and an open circuit breaker.
	ErrUnavailable = errors.New("omdb: catalog unavailable")
)

// Config configures the catalog client.
type Config struct {
	APIKey            string
	BaseURL           string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	BreakerTimeout    time.Duration
}

// SearchResult is one keyword search hit.
type SearchResult struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// Client calls the OMDb HTTP API. Calls are paced by a token bucket and
// guarded by a circuit breaker; nothing is retried.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// NewClient constructs a catalog client.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "omdb",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		breaker:    breaker,
	}, nil
}

// Search runs a keyword search restricted to movies. Results keep catalog order.
func (c *Client) Search(ctx context.Context, keyword string) ([]SearchResult, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrNotFound
	}
	params := url.Values{}
	params.Set("s", keyword)
	params.Set("type", "movie")
	var resp searchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}
	if !strings.EqualFold(resp.Response, "True") {
		return nil, notFoundOr(resp.Error)
	}
	return resp.Search, nil
}

// GetByTitle fetches full details for an exact title, optionally pinned to a year.
func (c *Client) GetByTitle(ctx context.Context, title, year string) (domain.Movie, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Movie{}, ErrNotFound
	}
	params := url.Values{}
	params.Set("t", title)
	params.Set("type", "movie")
	params.Set("plot", "short")
	if year = strings.TrimSpace(year); year != "" {
		params.Set("y", year)
	}
	return c.details(ctx, params)
}

// GetByID fetches full details by IMDb id.
func (c *Client) GetByID(ctx context.Context, imdbID string) (domain.Movie, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return domain.Movie{}, ErrNotFound
	}
	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("plot", "short")
	return c.details(ctx, params)
}

func (c *Client) details(ctx context.Context, params url.Values) (domain.Movie, error) {
	var resp detailResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return domain.Movie{}, err
	}
	if !strings.EqualFold(resp.Response, "True") {
		return domain.Movie{}, notFoundOr(resp.Error)
	}
	return resp.toMovie(), nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("omdb rate wait: %w", err)
	}
	params.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "?" + params.Encode()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("omdb api error: %s", resp.Status)
		}
		// 4xx bodies still carry the catalog's Response/Error envelope.
		return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("omdb decode: %w", err)
	}
	return nil
}

// notFoundOr maps a Response=False error text. "Too many results." is the
// catalog's reply to short keywords and counts as a miss.
func notFoundOr(msg string) error {
	msg = strings.TrimSpace(msg)
	lower := strings.ToLower(msg)
	switch {
	case msg == "", strings.Contains(lower, "not found"):
		return ErrNotFound
	case strings.Contains(lower, "too many results"):
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return fmt.Errorf("omdb api error: %s", msg)
}

type searchResponse struct {
	Search   []SearchResult `json:"Search"`
	Response string         `json:"Response"`
	Error    string         `json:"Error"`
}

type detailResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDbRating string `json:"imdbRating"`
	IMDbVotes  string `json:"imdbVotes"`
	IMDbID     string `json:"imdbID"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

func (d detailResponse) toMovie() domain.Movie {
	return domain.Movie{
		Title:     d.Title,
		Year:      d.Year,
		IMDbID:    d.IMDbID,
		Poster:    d.Poster,
		Rating:    d.IMDbRating,
		Votes:     d.IMDbVotes,
		Plot:      d.Plot,
		Director:  d.Director,
		Actors:    d.Actors,
		Genre:     d.Genre,
		CreatedAt: time.Now().UTC(),
	}
}
