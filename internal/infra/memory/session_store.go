package memory

import (
	"sync"

	"dollyeo/internal/app"
	"dollyeo/internal/roulette"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	picker   *roulette.Picker
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(picker *roulette.Picker) *SessionStore {
	return &SessionStore{
		picker:   picker,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(ownerID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[ownerID]; ok {
		return session
	}
	session := app.NewSession(ownerID, s.picker)
	s.sessions[ownerID] = session
	return session
}

func (s *SessionStore) Get(ownerID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[ownerID]
	return session, ok
}

func (s *SessionStore) Delete(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, ownerID)
}
