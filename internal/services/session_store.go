package services

import (
	"sort"
	"sync"
	"time"

	apperrors "excelflow/internal/errors"
	"excelflow/internal/operations"
	"excelflow/pkg/contracts/domain"
)

// Session is one uploaded dataset and the actions applied to it
type Session struct {
	mu sync.Mutex

	ID        string
	FileName  string
	Table     *domain.Table
	Actions   []operations.Action
	Report    *operations.Result
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MemorySessionStore is an in-memory session registry
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates a new in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session
func (s *MemorySessionStore) Create(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return apperrors.NewInputError("dataset " + session.ID + " already exists")
	}
	s.sessions[session.ID] = session
	return nil
}

// Get returns the session with the given id
func (s *MemorySessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, apperrors.NewNotFoundError("dataset " + id)
	}
	return session, nil
}

// Delete removes a session
func (s *MemorySessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return apperrors.NewNotFoundError("dataset " + id)
	}
	delete(s.sessions, id)
	return nil
}

// List returns every session ordered by creation time
func (s *MemorySessionStore) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of live sessions
func (s *MemorySessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
