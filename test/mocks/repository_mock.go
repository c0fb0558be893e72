// Package mocks provides in-memory implementations of the port interfaces
// for tests. Each mock records its calls and exposes error injection fields.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
)

// MockUserRepository implements ports.UserRepository for testing.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	FindByEmailCalls []string
	FindByEmailError error
}

var _ ports.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

// SeedUser adds a user for test setup.
func (m *MockUserRepository) SeedUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Email] = user
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindByEmailCalls = append(m.FindByEmailCalls, email)
	if m.FindByEmailError != nil {
		return nil, m.FindByEmailError
	}

	user, ok := m.users[email]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", email, domain.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

// MockRecordRepository implements ports.RecordRepository for testing.
type MockRecordRepository struct {
	mu      sync.RWMutex
	records map[string][][]byte
	rows    map[string][]byte
	outbox  []ports.CareEvent

	LoadRecordsError error
	ApplyChangeError error

	// BeforeApply, when set, runs at the start of every ApplyChange call
	// without holding the mock's lock, so a test can block a write.
	BeforeApply func(evt ports.CareEvent)
}

var _ ports.RecordRepository = (*MockRecordRepository)(nil)

func NewMockRecordRepository() *MockRecordRepository {
	return &MockRecordRepository{
		records: make(map[string][][]byte),
		rows:    make(map[string][]byte),
	}
}

// SeedRecords sets the payloads returned for collection.
func (m *MockRecordRepository) SeedRecords(collection string, payloads ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range payloads {
		m.records[collection] = append(m.records[collection], []byte(p))
	}
}

func (m *MockRecordRepository) LoadRecords(ctx context.Context, collection string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LoadRecordsError != nil {
		return nil, m.LoadRecordsError
	}
	return append([][]byte(nil), m.records[collection]...), nil
}

// ApplyChange mirrors the SQL repository: the row is upserted or deleted and
// the event appended to the outbox.
func (m *MockRecordRepository) ApplyChange(ctx context.Context, evt ports.CareEvent) error {
	if m.BeforeApply != nil {
		m.BeforeApply(evt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ApplyChangeError != nil {
		return m.ApplyChangeError
	}
	key := evt.Collection + "/" + evt.RecordID
	if evt.Kind == "deleted" {
		delete(m.rows, key)
	} else {
		m.rows[key] = append([]byte(nil), evt.Payload...)
	}
	m.outbox = append(m.outbox, evt)
	return nil
}

// Persisted reports whether a row for the record is currently stored.
func (m *MockRecordRepository) Persisted(collection, id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rows[collection+"/"+id]
	return ok
}

// Outbox returns a copy of the applied events.
func (m *MockRecordRepository) Outbox() []ports.CareEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ports.CareEvent(nil), m.outbox...)
}
