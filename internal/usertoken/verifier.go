package usertoken

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	defaultAudience = "authenticated"
	defaultLeeway   = 30 * time.Second
)

var (
	ErrMissingToken = errors.New("bearer token missing")
	ErrInvalidToken = errors.New("invalid token")
)

// Config configures user access-token verification.
type Config struct {
	Secret string
	// Issuer is optional; when set the iss claim must match.
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Verifier validates HS256 user access tokens issued by the app's auth
// provider and extracts the subject.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewVerifier creates a token verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("token verifier requires secret")
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = defaultAudience
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	return &Verifier{
		secret:   []byte(secret),
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: audience,
		leeway:   leeway,
	}, nil
}

// VerifySubject validates the token and returns the subject user ID.
func (v *Verifier) VerifySubject(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", fmt.Errorf("%w: subject missing", ErrInvalidToken)
	}
	return subject, nil
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
