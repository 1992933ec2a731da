package client

import "sync"

// TokenStore holds the session tokens between requests. Implementations
// must be safe for concurrent use.
type TokenStore interface {
	// Tokens returns the current access and refresh tokens. Either may
	// be empty when no session is active.
	Tokens() (access, refresh string)
	// SetSession replaces both tokens after login or register.
	SetSession(access, refresh string)
	// SetAccessToken replaces only the access token after a refresh.
	SetAccessToken(access string)
	// Clear drops the session.
	Clear()
}

// MemoryStore is the default in-process TokenStore.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Tokens() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, s.refresh
}

func (s *MemoryStore) SetSession(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
}

func (s *MemoryStore) SetAccessToken(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
}
