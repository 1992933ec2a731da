package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "oceanos"

const (
	// AccessTokenTTL is the lifetime of an access token.
	AccessTokenTTL = 15 * time.Minute
	// RefreshTokenTTL is the lifetime of a refresh token.
	RefreshTokenTTL = 14 * 24 * time.Hour
)

// TokenClass selects which signing secret verifies a token.
type TokenClass string

const (
	AccessToken  TokenClass = "access"
	RefreshToken TokenClass = "refresh"
)

// Claims is the JWT claim set carried by both token classes. Role is present
// only on access tokens.
type Claims struct {
	Role      Role       `json:"role,omitempty"`
	TokenType TokenClass `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies the two token classes with distinct
// secrets. Secrets are immutable after construction, so the service is safe
// for concurrent use without locking.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// NewTokenService constructs a service from the two signing secrets, which
// must be distinct non-empty values.
func NewTokenService(accessSecret, refreshSecret string) (*TokenService, error) {
	accessSecret = strings.TrimSpace(accessSecret)
	refreshSecret = strings.TrimSpace(refreshSecret)
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrInvalidInput
	}
	if accessSecret == refreshSecret {
		return nil, ErrInvalidInput
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}, nil
}

// WithClock overrides the time source, useful for expiry tests.
func (s *TokenService) WithClock(fn func() time.Time) *TokenService {
	if fn != nil {
		s.now = fn
	}
	return s
}

// IssueAccessToken signs a short-lived assertion of {subject, role}.
func (s *TokenService) IssueAccessToken(accountID string, role Role) (string, error) {
	return s.sign(accountID, role, AccessToken, AccessTokenTTL, s.accessSecret)
}

// IssueRefreshToken signs a longer-lived assertion of {subject}. The caller
// records the token server-side before handing it to the client.
func (s *TokenService) IssueRefreshToken(accountID string) (string, error) {
	return s.sign(accountID, "", RefreshToken, RefreshTokenTTL, s.refreshSecret)
}

func (s *TokenService) sign(accountID string, role Role, class TokenClass, ttl time.Duration, secret []byte) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Role:      role,
		TokenType: class,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify checks signature, expiry, issuer and token class, selecting the
// secret by class. Any failure collapses to ErrInvalidToken.
func (s *TokenService) Verify(token string, class TokenClass) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	secret := s.accessSecret
	if class == RefreshToken {
		secret = s.refreshSecret
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuer || claims.TokenType != class {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	if class == AccessToken && !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
