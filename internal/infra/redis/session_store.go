package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"dollyeo/internal/app"
	"dollyeo/internal/roulette"
)

const (
	sessionKeyPrefix = "dollyeo:session:"
	recordsKeyPrefix = "dollyeo:records:"
	groupsKeyPrefix  = "dollyeo:groups:"
	groupKeyPrefix   = "dollyeo:group:"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions themselves stay in-process (they carry subscriber channels);
// Redis marks session liveness so multiple dashboard instances can see who
// is currently playing.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	picker   *roulette.Picker
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration, picker *roulette.Picker) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(ownerID), "1", s.ttl).Err()
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
	_ = s.client.Del(context.Background(), s.key(ownerID)).Err()
}

func (s *SessionStore) key(ownerID string) string {
	return sessionKeyPrefix + ownerID
}
