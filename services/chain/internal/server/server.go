package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bingehouse/internal/metrics"
	"bingehouse/internal/ratelimit"
	"bingehouse/internal/usertoken"
	"bingehouse/internal/util"
	"bingehouse/pkg/domain"
	"bingehouse/services/chain/internal/app"
)

const (
	defaultMaxBodyBytes = 64 * 1024
	defaultListLimit    = 50
	maxListLimit        = 200
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// Limiter guards POST /chain per client IP. Nil disables limiting.
	Limiter *ratelimit.FixedWindowLimiter
	// TokenVerifier, when set, requires a bearer token whose subject matches
	// any userId a request names.
	TokenVerifier  *usertoken.Verifier
	TrustedProxies *util.TrustedProxies
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Server exposes the chain over HTTP.
type Server struct {
	app            *app.App
	limiter        *ratelimit.FixedWindowLimiter
	tokenVerifier  *usertoken.Verifier
	trustedProxies *util.TrustedProxies
	allowedOrigins []string
	maxBodyBytes   int64
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	s := &Server{
		app:            cfg.App,
		limiter:        cfg.Limiter,
		tokenVerifier:  cfg.TokenVerifier,
		trustedProxies: cfg.TrustedProxies,
		allowedOrigins: cfg.AllowedOrigins,
		maxBodyBytes:   maxBody,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("chain",
		util.WithSecurityHeaders(util.WithCORS(s.allowedOrigins, s.mux)),
		metrics.ObserveHTTPRequest,
	))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", metrics.Handler())
	s.mux.Handle("POST /chain", s.withRateLimit(http.HandlerFunc(s.handleChain)))
	s.mux.HandleFunc("GET /movies", s.handleListMovies)
	s.mux.HandleFunc("GET /conversations/{id}", s.handleConversation)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	var req app.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.UserID != nil && strings.TrimSpace(*req.UserID) != "" {
		if !s.authorizeUser(w, r, strings.TrimSpace(*req.UserID)) {
			return
		}
	}

	resp, err := s.app.ProcessQuery(r.Context(), req)
	switch {
	case errors.Is(err, app.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid request", requestDetails(err))
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:     "internal error",
			Details:   err.Error(),
			Message:   resp.Message,
			RequestID: util.RequestIDFromRequest(r),
		})
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: resp})
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid request", "userId is required")
		return
	}
	limit := defaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid request", "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	if !s.authorizeUser(w, r, userID) {
		return
	}
	entries, err := s.app.ListMovies(r.Context(), userID, limit)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("list movies failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", "could not load movies")
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: entries})
}

type conversationView struct {
	ConversationID  string                  `json:"conversationId"`
	TurnCount       int                     `json:"turnCount"`
	TotalTokens     int                     `json:"totalTokens"`
	DiscussedMovies []domain.DiscussedMovie `json:"discussedMovies"`
	UpdatedAt       string                  `json:"updatedAt"`
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	mem, ok, err := s.app.Conversation(r.Context(), id)
	switch {
	case errors.Is(err, app.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid request", requestDetails(err))
		return
	case err != nil:
		util.LoggerFromContext(r.Context()).Error("load conversation failed", "conversation_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", "could not load conversation")
		return
	case !ok:
		writeError(w, http.StatusNotFound, "not found", "unknown conversation")
		return
	}
	if mem.UserID != "" && !s.authorizeUser(w, r, mem.UserID) {
		return
	}
	view := conversationView{
		ConversationID:  mem.ID,
		TurnCount:       mem.TurnCount,
		TotalTokens:     mem.TotalTokens,
		DiscussedMovies: append([]domain.DiscussedMovie{}, mem.DiscussedMovies...),
		UpdatedAt:       mem.UpdatedAt.UTC().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: view})
}

// authorizeUser checks that the bearer token belongs to userID. It is a
// no-op without a verifier.
func (s *Server) authorizeUser(w http.ResponseWriter, r *http.Request, userID string) bool {
	if s.tokenVerifier == nil {
		return true
	}
	subject, err := s.tokenVerifier.VerifySubject(usertoken.BearerToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return false
	}
	if subject != userID {
		writeError(w, http.StatusForbidden, "forbidden", "userId does not match token")
		return false
	}
	return true
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "chain|" + util.ClientIP(r, s.trustedProxies)
		decision := s.limiter.Allow(r.Context(), key)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			metrics.RateLimitedTotal.Inc()
			retry := int(decision.RetryAfter.Round(time.Second) / time.Second)
			if retry <= 0 {
				retry = 60
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeError(w, http.StatusTooManyRequests, "too many requests", "slow down and try again shortly")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestDetails(err error) string {
	var reqErr *app.RequestError
	if errors.As(err, &reqErr) {
		return strings.Join(reqErr.Fields, "; ")
	}
	return err.Error()
}

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Details:   details,
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}
