package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"strengths-service/internal/questionnaire"
)

// SessionStore is a Redis-aware implementation of app.SessionRegistry.
// Notes:
//   - Session state machines hold timers and cannot leave the process, so the
//     sessions themselves live in a local map.
//   - Redis marks liveness per session so other instances and operators can
//     count active questionnaires (SCAN questionnaire:session:*). The marker
//     holds the session state and is refreshed by Touch on every focus change
//     and on completion, so it expires only once a session goes quiet.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*questionnaire.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*questionnaire.Session),
	}
}

func (s *SessionStore) Register(session *questionnaire.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), session.State().String(), s.ttl).Err()
}

func (s *SessionStore) Get(sessionID string) (*questionnaire.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

// Touch refreshes the liveness marker with the session's current state.
func (s *SessionStore) Touch(ctx context.Context, sessionID string) error {
	session, ok := s.Get(sessionID)
	if !ok {
		return nil
	}
	return s.client.Set(ctx, s.key(sessionID), session.State().String(), s.ttl).Err()
}

func (s *SessionStore) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) key(sessionID string) string {
	return "questionnaire:session:" + sessionID
}
