package ports

import (
	"context"
	"time"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
)

// SessionStore keeps the identity of each open session.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, identity domain.Identity, ttl time.Duration) error
	// Load returns domain.ErrSessionNotFound for unknown or expired sessions
	// and a nil identity for corrupt ones.
	Load(ctx context.Context, sessionID string) (*domain.Identity, error)
	Delete(ctx context.Context, sessionID string) error
}

// SessionClaims is what a verified session token asserts.
type SessionClaims struct {
	Subject   string
	SessionID string
	Role      string
}

type TokenIssuer interface {
	Issue(identity domain.Identity, sessionID string) (string, error)
	Verify(token string) (SessionClaims, error)
	TTL() time.Duration
}
