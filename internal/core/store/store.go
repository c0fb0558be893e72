package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
)

const (
	CollectionPatients      = "patients"
	CollectionPayments      = "payments"
	CollectionRequisitions  = "requisitions"
	CollectionEvents        = "events"
	CollectionNotifications = "notifications"
)

// Store owns every collection of the portal plus the notification inbox.
type Store struct {
	Patients     *Collection[domain.Patient]
	Payments     *Collection[domain.Payment]
	Requisitions *Collection[domain.Requisition]
	Events       *Collection[domain.CalendarEvent]
	Inbox        *Inbox

	mu           sync.RWMutex
	listeners    []subscription
	nextListener uint64
}

type subscription struct {
	id uint64
	fn Listener
}

func New() *Store {
	s := &Store{}
	s.Patients = NewCollection[domain.Patient](CollectionPatients, s.publish)
	s.Payments = NewCollection[domain.Payment](CollectionPayments, s.publish)
	s.Requisitions = NewCollection[domain.Requisition](CollectionRequisitions, s.publish)
	s.Events = NewCollection[domain.CalendarEvent](CollectionEvents, s.publish)
	s.Inbox = newInbox(NewCollection[domain.Notification](CollectionNotifications, s.publish))
	return s
}

// Subscribe registers fn for every change on any collection. The returned
// function removes it again and is safe to call more than once.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextListener++
	id := s.nextListener
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) publish(change Change) {
	s.mu.RLock()
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, sub := range listeners {
		sub.fn(change)
	}
}

// Hydrate loads JSON records of one collection coming from the backend.
// Stored ids are kept and subscribers are not notified.
func (s *Store) Hydrate(collection string, payloads [][]byte) error {
	switch collection {
	case CollectionPatients:
		return hydrate(s.Patients, payloads)
	case CollectionPayments:
		return hydrate(s.Payments, payloads)
	case CollectionRequisitions:
		return hydrate(s.Requisitions, payloads)
	case CollectionEvents:
		return hydrate(s.Events, payloads)
	case CollectionNotifications:
		return hydrate(s.Inbox.notifications, payloads)
	}
	return fmt.Errorf("hydrate: unknown collection %q", collection)
}

func hydrate[T Record[T]](c *Collection[T], payloads [][]byte) error {
	for i, payload := range payloads {
		var record T
		if err := json.Unmarshal(payload, &record); err != nil {
			return fmt.Errorf("hydrate %s[%d]: %w", c.Name(), i, err)
		}
		if err := c.load(record); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) PaymentsByStatus(status domain.PaymentStatus) []domain.Payment {
	return s.Payments.List(func(p domain.Payment) bool { return p.Status == status })
}

func (s *Store) RequisitionsByEstado(estado domain.RequisitionEstado) []domain.Requisition {
	return s.Requisitions.List(func(r domain.Requisition) bool { return r.Estado == estado })
}

// EventsBetween returns events starting in [from, to), ordered by start.
func (s *Store) EventsBetween(from, to time.Time) []domain.CalendarEvent {
	events := s.Events.List(func(e domain.CalendarEvent) bool {
		return !e.Inicio.Before(from) && e.Inicio.Before(to)
	})
	sortByStart(events)
	return events
}

func (s *Store) EventsForPatient(patientID string) []domain.CalendarEvent {
	events := s.Events.List(func(e domain.CalendarEvent) bool { return e.PacienteID == patientID })
	sortByStart(events)
	return events
}

// UpcomingEvents returns up to limit events starting at or after now.
// A limit of zero or less returns all of them.
func (s *Store) UpcomingEvents(now time.Time, limit int) []domain.CalendarEvent {
	events := s.Events.List(func(e domain.CalendarEvent) bool { return !e.Inicio.Before(now) })
	sortByStart(events)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}

func sortByStart(events []domain.CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Inicio.Before(events[j].Inicio)
	})
}

func (s *Store) PayPayment(id string) (domain.Payment, error) {
	return s.transitionPayment(id, domain.PaymentPagado)
}

func (s *Store) MarkPaymentOverdue(id string) (domain.Payment, error) {
	return s.transitionPayment(id, domain.PaymentAtrasado)
}

func (s *Store) transitionPayment(id string, next domain.PaymentStatus) (domain.Payment, error) {
	return s.Payments.Modify(id, func(p *domain.Payment) error {
		if !p.Status.CanTransition(next) {
			return fmt.Errorf("payment %s: %s -> %s: %w", id, p.Status, next, domain.ErrInvalidTransition)
		}
		p.Status = next
		return nil
	})
}

func (s *Store) ApproveRequisition(id string) (domain.Requisition, error) {
	return s.transitionRequisition(id, domain.RequisitionAprobada)
}

func (s *Store) RejectRequisition(id string) (domain.Requisition, error) {
	return s.transitionRequisition(id, domain.RequisitionRechazada)
}

func (s *Store) transitionRequisition(id string, next domain.RequisitionEstado) (domain.Requisition, error) {
	return s.Requisitions.Modify(id, func(r *domain.Requisition) error {
		if !r.Estado.CanTransition(next) {
			return fmt.Errorf("requisition %s: %s -> %s: %w", id, r.Estado, next, domain.ErrInvalidTransition)
		}
		r.Estado = next
		return nil
	})
}
