package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Session is the result of a successful login or registration.
type Session struct {
	AccessToken  string
	RefreshToken string
	Account      Account
}

type refreshRecord struct {
	accountID string
	expiresAt time.Time
}

// Service is the auth gateway: it owns the refresh-token revocation set and
// composes the token service with the user directory.
//
// A refresh token is honored only while its hash remains in the set; removal
// at logout is permanent revocation regardless of the token's own expiry.
type Service struct {
	tokens *TokenService
	dir    *Directory

	mu      sync.Mutex
	refresh map[string]refreshRecord // sha256(token) -> record
	now     func() time.Time
}

// NewService wires the gateway.
func NewService(tokens *TokenService, dir *Directory) *Service {
	return &Service{
		tokens:  tokens,
		dir:     dir,
		refresh: make(map[string]refreshRecord),
		now:     time.Now,
	}
}

// WithClock overrides the time source, useful for expiry tests.
func (s *Service) WithClock(fn func() time.Time) *Service {
	if fn != nil {
		s.now = fn
		s.tokens.WithClock(fn)
	}
	return s
}

// Login authenticates credentials and issues a token pair. Unknown email,
// wrong password and inactive account are indistinguishable to the caller.
func (s *Service) Login(email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	acc, err := s.dir.FindByEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if !s.dir.VerifyCredential(email, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.startSession(acc)
}

// Register creates the account plus credential and then behaves like a
// successful login.
func (s *Service) Register(email, password, name, roleRaw, organization string) (Session, error) {
	role, err := ParseRole(strings.TrimSpace(roleRaw))
	if err != nil {
		return Session{}, err
	}
	acc, err := s.dir.Create(email, password, name, role, organization)
	if err != nil {
		return Session{}, err
	}
	return s.startSession(acc)
}

func (s *Service) startSession(acc Account) (Session, error) {
	access, err := s.tokens.IssueAccessToken(acc.ID, acc.Role)
	if err != nil {
		return Session{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(acc.ID)
	if err != nil {
		return Session{}, err
	}

	// Record before returning so the token is honorable the moment the
	// client sees it.
	s.mu.Lock()
	s.pruneLocked()
	s.refresh[hashToken(refresh)] = refreshRecord{
		accountID: acc.ID,
		expiresAt: s.now().Add(RefreshTokenTTL),
	}
	s.mu.Unlock()

	return Session{AccessToken: access, RefreshToken: refresh, Account: acc}, nil
}

// Refresh exchanges a recorded, unexpired refresh token for a new access
// token. The refresh token itself is not rotated: it stays valid until
// logout or natural expiry.
func (s *Service) Refresh(refreshToken string) (string, error) {
	claims, err := s.tokens.Verify(refreshToken, RefreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	s.mu.Lock()
	rec, ok := s.refresh[hashToken(refreshToken)]
	if ok && s.now().After(rec.expiresAt) {
		delete(s.refresh, hashToken(refreshToken))
		ok = false
	}
	s.mu.Unlock()
	if !ok || rec.accountID != claims.Subject {
		return "", ErrInvalidRefreshToken
	}

	acc, err := s.dir.FindByID(claims.Subject)
	if err != nil || !acc.Active {
		return "", ErrInvalidRefreshToken
	}
	return s.tokens.IssueAccessToken(acc.ID, acc.Role)
}

// Me resolves an access token to its account. Verification failures and
// inactive accounts map to ErrInvalidToken; a vanished subject maps to
// ErrNotFound.
func (s *Service) Me(accessToken string) (Account, error) {
	claims, err := s.tokens.Verify(accessToken, AccessToken)
	if err != nil {
		return Account{}, ErrInvalidToken
	}
	acc, err := s.dir.FindByID(claims.Subject)
	if err != nil {
		return Account{}, fmt.Errorf("%w: account %s", ErrNotFound, claims.Subject)
	}
	if !acc.Active {
		return Account{}, ErrInvalidToken
	}
	return acc, nil
}

// Authenticate is the per-request check used by the HTTP middleware: token
// must verify and resolve to an active account.
func (s *Service) Authenticate(accessToken string) (Account, error) {
	claims, err := s.tokens.Verify(accessToken, AccessToken)
	if err != nil {
		return Account{}, ErrInvalidToken
	}
	acc, err := s.dir.FindByID(claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, ErrInvalidToken
		}
		return Account{}, err
	}
	if !acc.Active {
		return Account{}, ErrInvalidToken
	}
	return acc, nil
}

// Logout removes the refresh token from the revocation set. Idempotent:
// removing an absent token succeeds.
func (s *Service) Logout(refreshToken string) {
	if strings.TrimSpace(refreshToken) == "" {
		return
	}
	s.mu.Lock()
	delete(s.refresh, hashToken(refreshToken))
	s.mu.Unlock()
}

// pruneLocked drops naturally expired records. Caller holds s.mu.
func (s *Service) pruneLocked() {
	now := s.now()
	for h, rec := range s.refresh {
		if now.After(rec.expiresAt) {
			delete(s.refresh, h)
		}
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
