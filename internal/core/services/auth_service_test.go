package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
	"github.com/AchilleasB/care-portal/care-portal-service/test/mocks"
)

type authFixture struct {
	service  *AuthService
	users    *mocks.MockUserRepository
	sessions *mocks.MockSessionStore
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	users := mocks.NewMockUserRepository()
	sessions := mocks.NewMockSessionStore()
	tokens := mocks.NewTestTokenIssuer(t, time.Hour)

	medico := mocks.NewTestUser(t, "u-medico", "medico@clinica.test", domain.RoleMedico, "s3cret")
	users.SeedUser(medico)

	familiar := mocks.NewTestUser(t, "u-fam", "familia@clinica.test", domain.RoleFamiliar, "s3cret")
	familiar.PatientID = "P1"
	users.SeedUser(familiar)

	users.SeedUser(mocks.NewTestUser(t, "u-bad", "legacy@clinica.test", domain.Role("SUPERVISOR"), "s3cret"))

	return authFixture{
		service:  NewAuthService(users, sessions, tokens, logging.Discard()),
		users:    users,
		sessions: sessions,
	}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		password    string
		expectError error
	}{
		{"successful_login", "medico@clinica.test", "s3cret", nil},
		{"wrong_password", "medico@clinica.test", "nope", domain.ErrInvalidCredentials},
		{"unknown_user", "nadie@clinica.test", "s3cret", domain.ErrInvalidCredentials},
		{"unknown_role", "legacy@clinica.test", "s3cret", domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			token, err := f.service.Login(context.Background(), tt.email, tt.password)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Empty(t, token)
				assert.Zero(t, f.sessions.Count())
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.Equal(t, 1, f.sessions.Count())
		})
	}
}

func TestAuthService_ResolveAfterLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	token, err := f.service.Login(ctx, "familia@clinica.test", "s3cret")
	require.NoError(t, err)

	identity := f.service.Resolve(ctx, token)
	require.NotNil(t, identity)
	assert.Equal(t, "u-fam", identity.ID)
	assert.Equal(t, domain.RoleFamiliar, identity.Role)
	assert.Equal(t, "P1", identity.PatientID)
}

func TestAuthService_LogoutEndsSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	token, err := f.service.Login(ctx, "medico@clinica.test", "s3cret")
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, token))
	assert.Nil(t, f.service.Resolve(ctx, token))
	assert.Zero(t, f.sessions.Count())
}

func TestAuthService_ResolveFailsClosed(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	token, err := f.service.Login(ctx, "medico@clinica.test", "s3cret")
	require.NoError(t, err)
	sessionIDs := f.sessions.SessionIDs()
	require.Len(t, sessionIDs, 1)

	t.Run("empty_token", func(t *testing.T) {
		assert.Nil(t, f.service.Resolve(ctx, ""))
	})

	t.Run("garbage_token", func(t *testing.T) {
		assert.Nil(t, f.service.Resolve(ctx, "not-a-token"))
	})

	t.Run("token_from_other_issuer", func(t *testing.T) {
		other := mocks.NewTestTokenIssuer(t, time.Hour)
		forged, err := other.Issue(domain.Identity{ID: "u-medico", Role: domain.RoleAdmin}, sessionIDs[0])
		require.NoError(t, err)
		assert.Nil(t, f.service.Resolve(ctx, forged))
	})

	t.Run("store_unavailable", func(t *testing.T) {
		f.sessions.LoadError = errors.New("connection refused")
		defer func() { f.sessions.LoadError = nil }()
		assert.Nil(t, f.service.Resolve(ctx, token))
	})

	t.Run("corrupt_session", func(t *testing.T) {
		f.sessions.SetCorrupt(sessionIDs[0])
		assert.Nil(t, f.service.Resolve(ctx, token))
	})
}

func TestAuthService_ResolveRejectsMismatchedSubject(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	token, err := f.service.Login(ctx, "medico@clinica.test", "s3cret")
	require.NoError(t, err)

	sessionID := f.sessions.SessionIDs()[0]
	require.NoError(t, f.sessions.Save(ctx, sessionID, domain.Identity{ID: "someone-else", Role: domain.RoleAdmin}, time.Hour))

	assert.Nil(t, f.service.Resolve(ctx, token))
}

func TestAuthService_LoginSessionStoreError(t *testing.T) {
	f := newAuthFixture(t)
	f.sessions.SaveError = errors.New("redis down")

	_, err := f.service.Login(context.Background(), "medico@clinica.test", "s3cret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_LoginLookupFailureIsNotBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	outage := errors.New("circuit breaker is open")
	f.users.FindByEmailError = outage

	token, err := f.service.Login(context.Background(), "medico@clinica.test", "s3cret")
	require.Error(t, err)
	assert.ErrorIs(t, err, outage)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Empty(t, token)
	assert.Zero(t, f.sessions.Count())
}

func TestAuthService_LogoutInvalidToken(t *testing.T) {
	f := newAuthFixture(t)
	assert.Error(t, f.service.Logout(context.Background(), "bogus"))
}
