package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentPendiente, PaymentPagado, true},
		{PaymentPendiente, PaymentAtrasado, true},
		{PaymentAtrasado, PaymentPagado, true},
		{PaymentPagado, PaymentPendiente, false},
		{PaymentPagado, PaymentAtrasado, false},
		{PaymentAtrasado, PaymentPendiente, false},
		{PaymentPendiente, PaymentPendiente, false},
		{PaymentStatus("bogus"), PaymentPagado, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestRequisitionEstado_CanTransition(t *testing.T) {
	assert.True(t, RequisitionPendiente.CanTransition(RequisitionAprobada))
	assert.True(t, RequisitionPendiente.CanTransition(RequisitionRechazada))
	assert.False(t, RequisitionAprobada.CanTransition(RequisitionRechazada))
	assert.False(t, RequisitionRechazada.CanTransition(RequisitionAprobada))
	assert.False(t, RequisitionPendiente.CanTransition(RequisitionPendiente))
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, PaymentAtrasado.Valid())
	assert.False(t, PaymentStatus("PAGADO").Valid())
	assert.True(t, RequisitionRechazada.Valid())
	assert.False(t, RequisitionEstado("").Valid())
	assert.True(t, EventVisita.Valid())
	assert.False(t, EventTipo("fiesta").Valid())
	for _, ch := range Channels {
		assert.True(t, ch.Valid())
	}
	assert.False(t, Channel("fax").Valid())
}

func TestCalendarEventScope(t *testing.T) {
	tests := []struct {
		tipo           EventTipo
		admin, familia bool
	}{
		{EventConsulta, false, false},
		{EventTratamiento, false, false},
		{EventReunion, true, false},
		{EventOtro, true, false},
		{EventVisita, true, true},
	}
	for _, tt := range tests {
		e := CalendarEvent{Tipo: tt.tipo, PacienteID: "P1"}
		assert.Equal(t, tt.admin, e.AdminVisible(), string(tt.tipo))
		assert.Equal(t, tt.familia, e.FamilyVisible(), string(tt.tipo))
		assert.Equal(t, "P1", e.OwnerPatientID())
	}
}

func TestWithIDKeepsOtherFields(t *testing.T) {
	p := Payment{ID: "a", PacienteID: "P1", MontoCents: 100}.WithID("b")
	assert.Equal(t, Payment{ID: "b", PacienteID: "P1", MontoCents: 100}, p)
}

func TestRole(t *testing.T) {
	r, ok := ParseRole("enfermera")
	assert.True(t, ok)
	assert.Equal(t, RoleEnfermera, r)

	_, ok = ParseRole("Admin")
	assert.False(t, ok)

	assert.True(t, RoleAdmin.In(RoleMedico, RoleAdmin))
	assert.False(t, Role("root").In(Role("root")))
	assert.False(t, RoleFamiliar.In())
}
