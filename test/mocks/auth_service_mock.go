package mocks

import (
	"context"
	"sync"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
)

// MockAuthService implements ports.AuthService with a fixed token table.
type MockAuthService struct {
	mu         sync.RWMutex
	tokens     map[string]*domain.Identity
	logins     map[string]string
	LoginError error
	LogoutErr  error
	LoggedOut  []string
}

var _ ports.AuthService = (*MockAuthService)(nil)

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		tokens: make(map[string]*domain.Identity),
		logins: make(map[string]string),
	}
}

// SeedToken makes token resolve to identity.
func (m *MockAuthService) SeedToken(token string, identity domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = &identity
}

// SeedLogin makes Login(email, password) return token.
func (m *MockAuthService) SeedLogin(email, password, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[email+"\x00"+password] = token
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LoginError != nil {
		return "", m.LoginError
	}
	token, ok := m.logins[email+"\x00"+password]
	if !ok {
		return "", domain.ErrInvalidCredentials
	}
	return token, nil
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LogoutErr != nil {
		return m.LogoutErr
	}
	m.LoggedOut = append(m.LoggedOut, token)
	delete(m.tokens, token)
	return nil
}

func (m *MockAuthService) Resolve(ctx context.Context, token string) *domain.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	identity, ok := m.tokens[token]
	if !ok {
		return nil
	}
	copied := *identity
	return &copied
}
