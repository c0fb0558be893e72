package session

import (
	"encoding/json"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
)

// DecodeIdentity parses a stored session payload. Anything malformed,
// missing an id, or carrying a role outside the enumeration yields nil.
func DecodeIdentity(data []byte) *domain.Identity {
	var raw struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		Role      string `json:"role"`
		PatientID string `json:"patient_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	role, ok := domain.ParseRole(raw.Role)
	if !ok || raw.ID == "" {
		return nil
	}
	return &domain.Identity{
		ID:        raw.ID,
		Email:     raw.Email,
		Role:      role,
		PatientID: raw.PatientID,
	}
}

func EncodeIdentity(identity domain.Identity) ([]byte, error) {
	return json.Marshal(identity)
}
