package core

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Session is a dashboard login that outlives a single request.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

type SessionStore interface {
	Create(username string) (string, error)
	Lookup(id string) (Session, bool)
	IsValid(id string) bool
	Delete(id string)
	CleanupExpired() int
	Len() int
}

type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
}

func NewInMemorySessionStore(ttl time.Duration) SessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
	}
}

// Create generates a new session ID for username, stores it, and returns the ID.
func (s *InMemorySessionStore) Create(username string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	id := hex.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = Session{
		ID:        id,
		Username:  username,
		CreatedAt: time.Now(),
	}
	return id, nil
}

// Lookup returns the session for id if it exists and has not expired.
func (s *InMemorySessionStore) Lookup(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || time.Since(session.CreatedAt) > s.ttl {
		return Session{}, false
	}
	return session, true
}

func (s *InMemorySessionStore) IsValid(id string) bool {
	_, ok := s.Lookup(id)
	return ok
}

func (s *InMemorySessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// CleanupExpired removes all expired sessions from the map.
func (s *InMemorySessionStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	now := time.Now()
	for id, session := range s.sessions {
		if now.Sub(session.CreatedAt) > s.ttl {
			delete(s.sessions, id)
			count++
		}
	}
	return count
}

// Len returns the number of stored sessions, including expired ones not yet cleaned up.
func (s *InMemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
