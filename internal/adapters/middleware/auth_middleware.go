package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/access"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

var tracer = otel.Tracer("care-portal/guard")

// DecisionObserver records guard outcomes.
type DecisionObserver interface {
	ObserveDecision(decision string)
}

type AuthMiddleware struct {
	auth     ports.AuthService
	observer DecisionObserver
	log      *logging.Logger
}

func NewAuthMiddleware(auth ports.AuthService, observer DecisionObserver, log *logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, observer: observer, log: log}
}

type contextKey string

const (
	identityKey contextKey = "identity"
	tokenKey    contextKey = "token"
)

// IdentityFrom returns the identity resolved for the request, or nil.
func IdentityFrom(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(identityKey).(*domain.Identity)
	return identity
}

// TokenFrom returns the bearer token the request carried.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// WithIdentity stores identity in ctx the way Authenticate does.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header. It returns "" when the header is missing or malformed.
func BearerToken(r *http.Request) string {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return ""
	}
	return parts[1]
}

// Authenticate resolves the session behind the bearer token and stores the
// identity in the request context. It never rejects a request; anonymous
// requests simply carry a nil identity.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), tokenKey, token)
		if identity := m.auth.Resolve(ctx, token); identity != nil {
			ctx = WithIdentity(ctx, identity)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole lets the request through only when the identity in the
// context satisfies the requirement. No roles means any authenticated
// identity.
func (m *AuthMiddleware) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	req := domain.Require(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracer.Start(r.Context(), "guard.authorize")
			identity := IdentityFrom(r.Context())
			decision := access.Authorize(identity, req)
			span.SetAttributes(attribute.String("guard.decision", decision.String()))
			span.End()
			if m.observer != nil {
				m.observer.ObserveDecision(decision.String())
			}

			switch decision {
			case access.Allow:
				next.ServeHTTP(w, r)
			case access.RedirectToLogin:
				m.log.Debug("guard: no session", "path", r.URL.Path)
				deny(w, http.StatusUnauthorized, access.LoginPath)
			default:
				m.log.Info("guard: role not allowed", "path", r.URL.Path, "role", identity.Role, "required", roles)
				deny(w, http.StatusForbidden, access.DashboardFor(identity.Role))
			}
		})
	}
}

func deny(w http.ResponseWriter, status int, redirect string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"redirect": redirect})
}
