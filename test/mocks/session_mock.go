package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
)

// MockSessionStore implements ports.SessionStore in memory.
type MockSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionEntry

	SaveError   error
	LoadError   error
	DeleteError error
}

type sessionEntry struct {
	identity  *domain.Identity
	expiresAt time.Time
}

var _ ports.SessionStore = (*MockSessionStore)(nil)

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]sessionEntry)}
}

func (m *MockSessionStore) Save(ctx context.Context, sessionID string, identity domain.Identity, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	m.sessions[sessionID] = sessionEntry{identity: &identity, expiresAt: expiresAt}
	return nil
}

func (m *MockSessionStore) Load(ctx context.Context, sessionID string) (*domain.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	entry, ok := m.sessions[sessionID]
	if !ok || (!entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)) {
		return nil, domain.ErrSessionNotFound
	}
	if entry.identity == nil {
		return nil, nil
	}
	copied := *entry.identity
	return &copied, nil
}

func (m *MockSessionStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.sessions, sessionID)
	return nil
}

// SetCorrupt stores a session whose payload could not be decoded.
func (m *MockSessionStore) SetCorrupt(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = sessionEntry{}
}

// Count returns the number of stored sessions.
func (m *MockSessionStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SessionIDs lists the stored session ids.
func (m *MockSessionStore) SessionIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}
