// Package access decides whether an identity may open a protected view.
//
// Every function here is pure: the caller resolves the current identity
// (from the session store or a token) and passes it in.
package access

import "github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"

type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToFallback
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToFallback:
		return "redirect_to_fallback"
	}
	return "unknown"
}

// Authorize evaluates a single navigation attempt.
//
// A nil identity always yields RedirectToLogin. An identity whose role is
// outside the enumeration never matches anything and yields
// RedirectToFallback. An empty requirement accepts any valid identity.
func Authorize(identity *domain.Identity, req domain.RouteRequirement) Decision {
	if identity == nil {
		return RedirectToLogin
	}
	if !identity.Role.Valid() {
		return RedirectToFallback
	}
	if len(req.Roles) == 0 {
		return Allow
	}
	if identity.Role.In(req.Roles...) {
		return Allow
	}
	return RedirectToFallback
}
