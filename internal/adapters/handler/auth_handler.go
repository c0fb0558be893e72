package handler

import (
	"errors"
	"net/http"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/middleware"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/access"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

type AuthHandler struct {
	authService ports.AuthService
	log         *logging.Logger
}

func NewAuthHandler(auth ports.AuthService, log *logging.Logger) *AuthHandler {
	return &AuthHandler{authService: auth, log: log}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string           `json:"token"`
	Identity *domain.Identity `json:"identity"`
	Redirect string           `json:"redirect"`
}

type SessionResponse struct {
	Identity  *domain.Identity `json:"identity"`
	Dashboard string           `json:"dashboard"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		writeJSON(w, h.log, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	}
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	identity := h.authService.Resolve(r.Context(), token)
	if identity == nil {
		writeError(w, h.log, errors.New("session not readable after login"))
		return
	}

	writeJSON(w, h.log, http.StatusOK, LoginResponse{
		Token:    token,
		Identity: identity,
		Redirect: access.DashboardFor(identity.Role),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.TokenFrom(r.Context())); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]string{"redirect": access.LoginPath})
}

// Session returns the identity the guard resolved for the request.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		writeJSON(w, h.log, http.StatusUnauthorized, map[string]string{"redirect": access.LoginPath})
		return
	}
	writeJSON(w, h.log, http.StatusOK, SessionResponse{
		Identity:  identity,
		Dashboard: access.DashboardFor(identity.Role),
	})
}

// Access reports what the guard would decide for the view in ?path= given
// the caller's session. Anonymous callers are answered too.
func (h *AuthHandler) Access(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, h.log, http.StatusBadRequest, ErrorResponse{Error: "missing path"})
		return
	}
	writeJSON(w, h.log, http.StatusOK, access.Resolve(middleware.IdentityFrom(r.Context()), path))
}
