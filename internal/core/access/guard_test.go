package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
)

func identity(role domain.Role) *domain.Identity {
	return &domain.Identity{ID: "user-1", Email: "user@clinica.test", Role: role}
}

func TestAuthorize(t *testing.T) {
	clinical := domain.Require(domain.RoleMedico, domain.RoleEnfermera, domain.RoleAdmin)

	tests := []struct {
		name     string
		identity *domain.Identity
		req      domain.RouteRequirement
		expected Decision
	}{
		{"medico_allowed_on_clinical_route", identity(domain.RoleMedico), clinical, Allow},
		{"admin_allowed_on_clinical_route", identity(domain.RoleAdmin), clinical, Allow},
		{"familiar_denied_on_clinical_route", identity(domain.RoleFamiliar), clinical, RedirectToFallback},
		{"single_role_match", identity(domain.RoleFamiliar), domain.Require(domain.RoleFamiliar), Allow},
		{"single_role_mismatch", identity(domain.RoleEnfermera), domain.Require(domain.RoleFamiliar), RedirectToFallback},
		{"no_identity", nil, clinical, RedirectToLogin},
		{"no_identity_empty_requirement", nil, domain.Require(), RedirectToLogin},
		{"empty_requirement_allows_any_role", identity(domain.RoleFamiliar), domain.Require(), Allow},
		{"unknown_role_falls_back", identity(domain.Role("superuser")), clinical, RedirectToFallback},
		{"unknown_role_on_empty_requirement", identity(domain.Role("superuser")), domain.Require(), RedirectToFallback},
		{"role_match_is_case_sensitive", identity(domain.Role("Medico")), clinical, RedirectToFallback},
		{"required_unknown_role_never_matches", identity(domain.Role("root")), domain.Require(domain.Role("root")), RedirectToFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Authorize(tt.identity, tt.req))
		})
	}
}

func TestAuthorize_NeverAllowsRoleOutsideRequirement(t *testing.T) {
	for _, required := range domain.Roles {
		for _, actual := range domain.Roles {
			decision := Authorize(identity(actual), domain.Require(required))
			if actual == required {
				assert.Equal(t, Allow, decision)
				continue
			}
			assert.NotEqual(t, Allow, decision, "role %s on route for %s", actual, required)
		}
	}
}

func TestAuthorize_IsDeterministic(t *testing.T) {
	id := identity(domain.RoleEnfermera)
	req := domain.Require(domain.RoleEnfermera)
	first := Authorize(id, req)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Authorize(id, req))
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "redirect_to_login", RedirectToLogin.String())
	assert.Equal(t, "redirect_to_fallback", RedirectToFallback.String())
	assert.Equal(t, "unknown", Decision(42).String())
}
