package store

import "github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"

// Scoped records carry the flags used for role-based visibility.
type Scoped interface {
	AdminVisible() bool
	FamilyVisible() bool
	OwnerPatientID() string
}

// VisibleSubset narrows records to what identity may see:
//
//   - admin: only records flagged as administrative
//   - medico, enfermera: everything
//   - familiar: records of its own patient plus family-visible ones
//   - anything else, including no identity: nothing
func VisibleSubset[T Scoped](identity *domain.Identity, records []T) []T {
	out := make([]T, 0, len(records))
	if identity == nil {
		return out
	}

	var keep func(T) bool
	switch identity.Role {
	case domain.RoleAdmin:
		keep = func(r T) bool { return r.AdminVisible() }
	case domain.RoleMedico, domain.RoleEnfermera:
		keep = func(T) bool { return true }
	case domain.RoleFamiliar:
		keep = func(r T) bool {
			if r.FamilyVisible() {
				return true
			}
			return identity.PatientID != "" && r.OwnerPatientID() == identity.PatientID
		}
	default:
		return out
	}

	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Visible lists the records of c that identity may see.
func Visible[T interface {
	Record[T]
	Scoped
}](identity *domain.Identity, c *Collection[T]) []T {
	return VisibleSubset(identity, c.List())
}
