package domain

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleMedico    Role = "medico"
	RoleEnfermera Role = "enfermera"
	RoleFamiliar  Role = "familiar"
)

// Roles lists every member of the closed role enumeration.
var Roles = []Role{RoleAdmin, RoleMedico, RoleEnfermera, RoleFamiliar}

// ParseRole converts a raw string into a Role. Matching is exact and
// case-sensitive; anything outside the enumeration is rejected.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMedico, RoleEnfermera, RoleFamiliar:
		return true
	}
	return false
}

// In reports whether r is one of roles. An invalid role is never a member.
func (r Role) In(roles ...Role) bool {
	if !r.Valid() {
		return false
	}
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Identity is the signed-in actor. PatientID is only set for RoleFamiliar.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	PatientID string `json:"patient_id,omitempty"`
}

// RouteRequirement lists the roles accepted by a protected view. An empty
// list accepts any authenticated identity.
type RouteRequirement struct {
	Roles []Role `json:"roles"`
}

func Require(roles ...Role) RouteRequirement {
	return RouteRequirement{Roles: roles}
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PatientID    string    `json:"patient_id,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) Identity() Identity {
	return Identity{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		PatientID: u.PatientID,
	}
}
