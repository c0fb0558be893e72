package mocks

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/session"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
)

// NewTestTokenIssuer returns an RS256 issuer backed by a fresh key pair.
func NewTestTokenIssuer(t *testing.T, ttl time.Duration) *session.TokenIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return session.NewTokenIssuer(key, &key.PublicKey, ttl)
}

// NewTestUser builds a user whose password hash matches password.
func NewTestUser(t *testing.T, id, email string, role domain.Role, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &domain.User{
		ID:           id,
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
}

// CreateTestEvent creates a sample outbox event.
func CreateTestEvent() ports.CareEvent {
	return ports.CareEvent{
		ID:         "evt-1",
		Collection: "patients",
		Kind:       "added",
		RecordID:   "P1",
		Payload:    []byte(`{"id":"P1","nombre":"Ana"}`),
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
