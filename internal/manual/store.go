package manual

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

// Session is a stored editor with its bookkeeping.
type Session struct {
	ID        string
	Schema    string
	UpdatedAt time.Time
	editor    *Editor
}

// Store keeps editors by session ID and serialises access to them.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create starts a new session for the given schema and returns its ID.
func (s *Store) Create(schema string, cols types.RequiredColumnSet) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.sessions[id] = &Session{
		ID:        id,
		Schema:    schema,
		UpdatedAt: s.now(),
		editor:    NewEditor(cols),
	}
	return id
}

// Do runs fn with exclusive access to the session's editor.
func (s *Store) Do(id string, fn func(*Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("draft session %s: %w", id, apperrors.ErrNotFound)
	}
	if err := fn(sess.editor); err != nil {
		return err
	}
	sess.UpdatedAt = s.now()
	return nil
}

// Schema returns the schema name a session was created with.
func (s *Store) Schema(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return "", fmt.Errorf("draft session %s: %w", id, apperrors.ErrNotFound)
	}
	return sess.Schema, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("draft session %s: %w", id, apperrors.ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

// Prune removes sessions untouched for longer than maxAge and returns how
// many were removed.
func (s *Store) Prune(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
