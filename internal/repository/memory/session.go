package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/core/port"
	"github.com/qwezhou/AAA-Code/internal/infra/security"
	"github.com/qwezhou/AAA-Code/internal/repository"
)

const sessionIDBytes = 32

// SessionStore keeps session records in a process-local map guarded by a
// single lock. Records live until explicit deletion or process restart;
// contention is low and hold times are map operations only, so one coarse
// lock is sufficient.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionRecord
}

// NewSessionStore constructs an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.SessionRecord),
	}
}

var _ port.SessionStore = (*SessionStore)(nil)

// Create mints an unguessable identifier and stores the record under it.
func (s *SessionStore) Create(ctx context.Context, record domain.SessionRecord) (string, error) {
	id, err := security.GenerateSecureToken(sessionIDBytes)
	if err != nil {
		return "", fmt.Errorf("mint session id: %w", err)
	}

	s.mu.Lock()
	s.sessions[id] = record
	s.mu.Unlock()

	return id, nil
}

// Get returns a copy of the stored record, or repository.ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, repository.ErrNotFound
	}

	s.mu.RLock()
	record, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, repository.ErrNotFound
	}

	copied := record
	if record.User != nil {
		user := *record.User
		copied.User = &user
	}
	return &copied, nil
}

// Update replaces the record for an existing identifier.
func (s *SessionStore) Update(ctx context.Context, sessionID string, record domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return repository.ErrNotFound
	}
	s.sessions[sessionID] = record
	return nil
}

// Delete removes the record. Deleting an unknown identifier is a no-op so
// logout always succeeds.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Len reports the number of live sessions, used by readiness diagnostics.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
