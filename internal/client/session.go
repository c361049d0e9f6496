package client

import (
	"sync"
)

// Session is the client's in-memory view of the current credential:
// the bearer token plus an authenticated flag.  It is an explicit
// object injected into the API client rather than ambient global state,
// initialized at startup via Restore and torn down by Clear at logout.
//
// The durable store may be nil, in which case the session lives only in
// memory (useful for tests and throwaway sessions).
type Session struct {
	mu            sync.RWMutex
	token         string
	authenticated bool
	store         *TokenStore
}

// NewSession creates a session backed by the given durable store.
func NewSession(store *TokenStore) *Session {
	return &Session{store: store}
}

// Restore loads a previously persisted token at process start.  A
// present token marks the session authenticated optimistically without
// revalidating against the server; an expired token is only discovered
// on the next authenticated call, which clears the session.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	token, err := s.store.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.authenticated = token != ""
	return nil
}

// Set records a freshly issued token, persisting it durably.
func (s *Session) Set(token string) error {
	s.mu.Lock()
	s.token = token
	s.authenticated = token != ""
	s.mu.Unlock()
	if s.store != nil {
		return s.store.Save(token)
	}
	return nil
}

// Clear wipes the session in memory and in the durable store.  It is
// called on logout and whenever the server rejects the credential.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.authenticated = false
	s.mu.Unlock()
	if s.store != nil {
		return s.store.Clear()
	}
	return nil
}

// Token returns the current bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether the session currently holds a token.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}
