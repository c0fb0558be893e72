package ports

import (
	"context"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, email string, password string) (string, error)
	Logout(ctx context.Context, token string) error
	// Resolve returns the identity behind token, or nil when there is none.
	Resolve(ctx context.Context, token string) *domain.Identity
}
