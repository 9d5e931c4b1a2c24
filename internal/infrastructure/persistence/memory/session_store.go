// Package memory implements an in-process session store. It backs local
// development and tests; deployments use the Redis store so conversations
// survive restarts.
package memory

import (
	"context"
	"sync"

	"github.com/campus-connect/campus-bot/internal/domain/session"
)

// SessionStore implements session.Store on a mutex-guarded map.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*session.Session
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*session.Session),
	}
}

// Get returns the session for a chat, creating an anonymous one if none
// exists. Returns a copy so callers cannot mutate shared state without Put.
func (s *SessionStore) Get(_ context.Context, chatID int64) (*session.Session, error) {
	s.mu.RLock()
	stored, ok := s.sessions[chatID]
	s.mu.RUnlock()

	if !ok {
		return session.New(chatID), nil
	}

	return copySession(stored), nil
}

// Put stores the session.
func (s *SessionStore) Put(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ChatID] = copySession(sess)
	return nil
}

// Clear removes the session for a chat.
func (s *SessionStore) Clear(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatID)
	return nil
}

func copySession(src *session.Session) *session.Session {
	dst := &session.Session{
		ChatID:        src.ChatID,
		State:         src.State,
		PendingFields: make(map[string]string, len(src.PendingFields)),
	}
	if src.UserID != nil {
		id := *src.UserID
		dst.UserID = &id
	}
	for k, v := range src.PendingFields {
		dst.PendingFields[k] = v
	}
	return dst
}
