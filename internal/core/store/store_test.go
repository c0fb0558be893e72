package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
)

func TestStore_SubscribeReceivesEveryMutation(t *testing.T) {
	s := New()
	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	p := s.Patients.Add(domain.Patient{Nombre: "Ana"})
	_, err := s.Patients.Update(p.ID, func(p *domain.Patient) { p.Estado = "estable" })
	require.NoError(t, err)
	require.NoError(t, s.Patients.Delete(p.ID))

	updated := p
	updated.Estado = "estable"
	assert.Equal(t, []Change{
		{Collection: CollectionPatients, Kind: Added, ID: p.ID, Seq: 1, Record: p},
		{Collection: CollectionPatients, Kind: Updated, ID: p.ID, Seq: 2, Record: updated},
		{Collection: CollectionPatients, Kind: Deleted, ID: p.ID, Seq: 3},
	}, changes)
}

func TestStore_FailedMutationsAreNotPublished(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func(Change) { calls++ })

	_, err := s.Payments.Update("missing", func(*domain.Payment) {})
	require.Error(t, err)
	require.Error(t, s.Payments.Delete("missing"))

	assert.Zero(t, calls)
}

func TestStore_ListenerSeesUpdatedState(t *testing.T) {
	s := New()
	var seen []string
	s.Subscribe(func(c Change) {
		for _, p := range s.Patients.List() {
			seen = append(seen, p.Nombre)
		}
	})

	p := s.Patients.Add(domain.Patient{Nombre: "Ana"})
	assert.Equal(t, []string{"Ana"}, seen)

	seen = nil
	_, err := s.Patients.Update(p.ID, func(p *domain.Patient) { p.Nombre = "Ana María" })
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana María"}, seen)
}

func TestStore_UnsubscribeLeavesOthers(t *testing.T) {
	s := New()
	var first, second int
	unsubFirst := s.Subscribe(func(Change) { first++ })
	s.Subscribe(func(Change) { second++ })

	s.Events.Add(domain.CalendarEvent{Titulo: "uno"})
	unsubFirst()
	unsubFirst()
	s.Events.Add(domain.CalendarEvent{Titulo: "dos"})

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestStore_ListenerMayUnsubscribeItself(t *testing.T) {
	s := New()
	calls := 0
	var unsub func()
	unsub = s.Subscribe(func(Change) {
		calls++
		unsub()
	})

	s.Patients.Add(domain.Patient{Nombre: "a"})
	s.Patients.Add(domain.Patient{Nombre: "b"})

	assert.Equal(t, 1, calls)
}

func TestStore_Hydrate(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func(Change) { calls++ })

	err := s.Hydrate(CollectionPatients, [][]byte{
		[]byte(`{"id":"P1","nombre":"Ana"}`),
		[]byte(`{"nombre":"Sin id"}`),
	})
	require.NoError(t, err)

	got, err := s.Patients.Get("P1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Nombre)
	assert.Equal(t, 2, s.Patients.Len())
	assert.Zero(t, calls)
}

func TestStore_HydrateErrors(t *testing.T) {
	s := New()

	assert.Error(t, s.Hydrate("unknown", nil))
	assert.Error(t, s.Hydrate(CollectionPayments, [][]byte{[]byte(`{not json`)}))
	assert.Error(t, s.Hydrate(CollectionEvents, [][]byte{
		[]byte(`{"id":"E1"}`),
		[]byte(`{"id":"E1"}`),
	}))
}

func TestStore_PaymentTransitions(t *testing.T) {
	s := New()
	p := s.Payments.Add(domain.Payment{Concepto: "Mensualidad", Status: domain.PaymentPendiente})

	overdue, err := s.MarkPaymentOverdue(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentAtrasado, overdue.Status)

	paid, err := s.PayPayment(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPagado, paid.Status)

	_, err = s.PayPayment(p.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = s.PayPayment("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_RequisitionTransitions(t *testing.T) {
	s := New()
	a := s.Requisitions.Add(domain.Requisition{Tipo: "material", Estado: domain.RequisitionPendiente})
	b := s.Requisitions.Add(domain.Requisition{Tipo: "material", Estado: domain.RequisitionPendiente})

	approved, err := s.ApproveRequisition(a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequisitionAprobada, approved.Estado)

	rejected, err := s.RejectRequisition(b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequisitionRechazada, rejected.Estado)

	_, err = s.RejectRequisition(a.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Len(t, s.RequisitionsByEstado(domain.RequisitionPendiente), 0)
	assert.Len(t, s.RequisitionsByEstado(domain.RequisitionAprobada), 1)
}

func TestStore_PaymentsByStatus(t *testing.T) {
	s := New()
	s.Payments.Add(domain.Payment{Status: domain.PaymentPagado})
	s.Payments.Add(domain.Payment{Status: domain.PaymentAtrasado})
	s.Payments.Add(domain.Payment{Status: domain.PaymentAtrasado})

	assert.Len(t, s.PaymentsByStatus(domain.PaymentAtrasado), 2)
	assert.Len(t, s.PaymentsByStatus(domain.PaymentPendiente), 0)
}

func TestStore_EventQueries(t *testing.T) {
	s := New()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.Events.Add(domain.CalendarEvent{Titulo: "tarde", PacienteID: "P1", Inicio: base.Add(5 * time.Hour)})
	s.Events.Add(domain.CalendarEvent{Titulo: "temprano", PacienteID: "P1", Inicio: base})
	s.Events.Add(domain.CalendarEvent{Titulo: "otro dia", PacienteID: "P2", Inicio: base.Add(48 * time.Hour)})
	s.Events.Add(domain.CalendarEvent{Titulo: "ayer", Inicio: base.Add(-24 * time.Hour)})

	titles := func(events []domain.CalendarEvent) []string {
		var out []string
		for _, e := range events {
			out = append(out, e.Titulo)
		}
		return out
	}

	assert.Equal(t, []string{"temprano", "tarde"}, titles(s.EventsBetween(base, base.Add(24*time.Hour))))
	assert.Equal(t, []string{"temprano", "tarde"}, titles(s.EventsForPatient("P1")))
	assert.Equal(t, []string{"temprano", "tarde", "otro dia"}, titles(s.UpcomingEvents(base, 0)))
	assert.Equal(t, []string{"temprano"}, titles(s.UpcomingEvents(base, 1)))
}
