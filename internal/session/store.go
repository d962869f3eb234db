// Package session holds the persisted client credentials: an access token
// and a refresh token stored under fixed keys. The pair is always cleared
// together, never independently.
package session

import "sync"

const (
	KeyAccess  = "access"
	KeyRefresh = "refresh"
)

// Store is the persisted two-token session state read by every outbound
// request. An empty string means the token is absent.
type Store interface {
	Access() string
	Refresh() string
	// SetPair stores both tokens, as after a login.
	SetPair(access, refresh string) error
	// SetAccess replaces only the access token, as after a refresh.
	SetAccess(access string) error
	// Clear removes both tokens.
	Clear() error
}

// MemoryStore keeps the session pair in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *MemoryStore) Refresh() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *MemoryStore) SetPair(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	return nil
}

func (s *MemoryStore) SetAccess(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	return nil
}
