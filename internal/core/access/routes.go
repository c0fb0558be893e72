package access

import (
	"strings"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
)

const LoginPath = "/login"

var publicRoutes = map[string]struct{}{
	"/":                   {},
	"/login":              {},
	"/registro":           {},
	"/recuperar-password": {},
	"/health":             {},
	"/health/ready":       {},
	"/health/live":        {},
	"/metrics":            {},
}

// Routes maps each protected view to the roles allowed to open it.
var Routes = map[string]domain.RouteRequirement{
	"/dashboard/admin":     domain.Require(domain.RoleAdmin),
	"/dashboard/medico":    domain.Require(domain.RoleMedico),
	"/dashboard/enfermera": domain.Require(domain.RoleEnfermera),
	"/dashboard/familiar":  domain.Require(domain.RoleFamiliar),
	"/pacientes":           domain.Require(domain.RoleMedico, domain.RoleEnfermera, domain.RoleAdmin),
	"/calendario":          domain.Require(),
	"/pagos":               domain.Require(domain.RoleAdmin, domain.RoleFamiliar),
	"/requisiciones":       domain.Require(domain.RoleEnfermera, domain.RoleMedico, domain.RoleAdmin),
	"/mensajes":            domain.Require(),
	"/usuarios":            domain.Require(domain.RoleAdmin),
	"/archivos":            domain.Require(domain.RoleMedico, domain.RoleEnfermera, domain.RoleAdmin),
}

var dashboards = map[domain.Role]string{
	domain.RoleAdmin:     "/dashboard/admin",
	domain.RoleMedico:    "/dashboard/medico",
	domain.RoleEnfermera: "/dashboard/enfermera",
	domain.RoleFamiliar:  "/dashboard/familiar",
}

// IsPublicRoute reports whether path bypasses the guard.
func IsPublicRoute(path string) bool {
	_, ok := publicRoutes[normalize(path)]
	return ok
}

// DashboardFor returns the landing view of a role, or LoginPath when the
// role is not recognised.
func DashboardFor(role domain.Role) string {
	if d, ok := dashboards[role]; ok {
		return d
	}
	return LoginPath
}

// RequirementFor returns the requirement of a protected path. Nested views
// inherit the requirement of their closest registered parent; unknown paths
// need any authenticated identity.
func RequirementFor(path string) domain.RouteRequirement {
	p := normalize(path)
	for p != "" {
		if req, ok := Routes[p]; ok {
			return req
		}
		i := strings.LastIndex(p, "/")
		if i <= 0 {
			break
		}
		p = p[:i]
	}
	return domain.Require()
}

type Result struct {
	Path     string   `json:"path"`
	Decision Decision `json:"-"`
	Outcome  string   `json:"decision"`
	Redirect string   `json:"redirect,omitempty"`
}

// Resolve runs the full navigation check for path: public routes are let
// through, everything else goes through Authorize and receives a redirect
// target when denied.
func Resolve(identity *domain.Identity, path string) Result {
	res := Result{Path: normalize(path)}
	if IsPublicRoute(path) {
		res.Decision = Allow
		res.Outcome = Allow.String()
		return res
	}

	res.Decision = Authorize(identity, RequirementFor(path))
	res.Outcome = res.Decision.String()
	switch res.Decision {
	case RedirectToLogin:
		res.Redirect = LoginPath
	case RedirectToFallback:
		res.Redirect = DashboardFor(identity.Role)
	}
	return res
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
