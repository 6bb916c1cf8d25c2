package ai

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// MinTokenSecretLength is the shortest accepted HS256 signing secret.
const MinTokenSecretLength = 32

const tokenSubject = "assistant"

// SignedTokenSource mints short-lived HS256 bearer tokens for an LLM gateway.
// Wrap it in oauth2.ReuseTokenSource so a token is only minted when the
// previous one is about to expire.
type SignedTokenSource struct {
	secret   []byte
	audience string
	ttl      time.Duration
	now      func() time.Time

	mu     sync.Mutex
	minted int
}

// NewSignedTokenSource creates a token source. audience is usually the model name.
func NewSignedTokenSource(secret, audience string, ttl time.Duration) *SignedTokenSource {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SignedTokenSource{
		secret:   []byte(secret),
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Token implements oauth2.TokenSource.
func (s *SignedTokenSource) Token() (*oauth2.Token, error) {
	if len(s.secret) < MinTokenSecretLength {
		return nil, errors.Errorf("token secret must be at least %d bytes", MinTokenSecretLength)
	}
	now := s.now()
	expiry := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   tokenSubject,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiry),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign bearer token")
	}

	s.mu.Lock()
	s.minted++
	s.mu.Unlock()
	return &oauth2.Token{AccessToken: signed, TokenType: "Bearer", Expiry: expiry}, nil
}

// Minted returns how many tokens were signed.
func (s *SignedTokenSource) Minted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minted
}

// ValidateToken parses a token minted by a source sharing secret, pinning HS256.
func ValidateToken(secret, tokenStr string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// NewTokenSource returns the credential used on every request: a reusable
// signed token when a secret is configured, the static API key otherwise.
func NewTokenSource(cfg *LLMConfig) oauth2.TokenSource {
	if cfg.TokenSecret != "" {
		return oauth2.ReuseTokenSource(nil, NewSignedTokenSource(cfg.TokenSecret, cfg.Model, cfg.TokenTTL))
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
}
