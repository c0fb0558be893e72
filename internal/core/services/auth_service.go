package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

// AuthService opens, resolves and closes portal sessions.
type AuthService struct {
	userRepo ports.UserRepository
	sessions ports.SessionStore
	tokens   ports.TokenIssuer
	log      *logging.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(
	userRepo ports.UserRepository,
	sessions ports.SessionStore,
	tokens ports.TokenIssuer,
	log *logging.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		tokens:   tokens,
		log:      log,
	}
}

// Login checks the credentials and returns a signed session token. Unknown
// users, wrong passwords and accounts with an unrecognised role all yield
// domain.ErrInvalidCredentials. Lookup failures are returned wrapped so an
// outage is not reported as a bad password.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Info("auth: login rejected", "email", email, "reason", "unknown email")
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		s.log.Error("auth: user lookup failed", "email", email, "error", err)
		return "", fmt.Errorf("auth: find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Info("auth: login rejected", "email", email, "reason", "password mismatch")
		return "", domain.ErrInvalidCredentials
	}
	if !user.Role.Valid() {
		s.log.Warn("auth: account has unknown role", "user_id", user.ID, "role", string(user.Role))
		return "", domain.ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	if err := s.sessions.Save(ctx, sessionID, user.Identity(), s.tokens.TTL()); err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}

	token, err := s.tokens.Issue(user.Identity(), sessionID)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	s.log.Info("auth: session opened", "user_id", user.ID, "role", string(user.Role))
	return token, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return err
	}
	s.log.Info("auth: session closed", "user_id", claims.Subject)
	return nil
}

// Resolve returns the identity of an open session. Any failure, including a
// token that does not match its stored session, yields nil.
func (s *AuthService) Resolve(ctx context.Context, token string) *domain.Identity {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.log.Debug("auth: token rejected", "error", err)
		return nil
	}

	identity, err := s.sessions.Load(ctx, claims.SessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.log.Error("auth: session lookup failed", "error", err)
		}
		return nil
	}
	if identity == nil || identity.ID != claims.Subject {
		s.log.Warn("auth: session does not match token", "subject", claims.Subject)
		return nil
	}
	return identity
}
