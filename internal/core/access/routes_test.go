package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
)

func TestIsPublicRoute(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/login", true},
		{"/login/", true},
		{"/login?next=/pacientes", true},
		{"/registro", true},
		{"/", true},
		{"", true},
		{"/health/ready", true},
		{"/pacientes", false},
		{"/dashboard/admin", false},
		{"/Login", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsPublicRoute(tt.path))
		})
	}
}

func TestRequirementFor(t *testing.T) {
	assert.Equal(t, Routes["/pacientes"], RequirementFor("/pacientes"))
	assert.Equal(t, Routes["/pacientes"], RequirementFor("/pacientes/abc-123"))
	assert.Equal(t, Routes["/pagos"], RequirementFor("/pagos/"))
	assert.Empty(t, RequirementFor("/desconocido").Roles)
}

func TestDashboardFor(t *testing.T) {
	assert.Equal(t, "/dashboard/medico", DashboardFor(domain.RoleMedico))
	assert.Equal(t, "/dashboard/familiar", DashboardFor(domain.RoleFamiliar))
	assert.Equal(t, LoginPath, DashboardFor(domain.Role("ghost")))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		identity *domain.Identity
		path     string
		decision Decision
		redirect string
	}{
		{"public_route_without_identity", nil, "/login", Allow, ""},
		{"protected_route_without_identity", nil, "/pacientes", RedirectToLogin, "/login"},
		{"medico_on_patients", identity(domain.RoleMedico), "/pacientes", Allow, ""},
		{"familiar_on_patients", identity(domain.RoleFamiliar), "/pacientes", RedirectToFallback, "/dashboard/familiar"},
		{"enfermera_on_admin_dashboard", identity(domain.RoleEnfermera), "/dashboard/admin", RedirectToFallback, "/dashboard/enfermera"},
		{"any_role_on_calendar", identity(domain.RoleFamiliar), "/calendario", Allow, ""},
		{"unknown_role_goes_to_login", identity(domain.Role("guest")), "/calendario", RedirectToFallback, "/login"},
		{"nested_view_inherits", identity(domain.RoleFamiliar), "/usuarios/42/editar", RedirectToFallback, "/dashboard/familiar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.identity, tt.path)
			assert.Equal(t, tt.decision, res.Decision)
			assert.Equal(t, tt.decision.String(), res.Outcome)
			assert.Equal(t, tt.redirect, res.Redirect)
		})
	}
}
