package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/middleware"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/store"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

// RecordsHandler serves the clinic collections. Reads are always narrowed
// to what the caller's identity may see.
type RecordsHandler struct {
	store *store.Store
	log   *logging.Logger
}

func NewRecordsHandler(st *store.Store, log *logging.Logger) *RecordsHandler {
	return &RecordsHandler{store: st, log: log}
}

type scopedRecord[T any] interface {
	store.Record[T]
	store.Scoped
}

// Patients

func (h *RecordsHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	listVisible(w, r, h.log, h.store.Patients.List())
}

func (h *RecordsHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	getVisible(w, r, h.log, h.store.Patients)
}

func (h *RecordsHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	createRecord(w, r, h.log, h.store.Patients, validatePatient)
}

func (h *RecordsHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	replaceRecord(w, r, h.log, h.store.Patients, validatePatient, nil)
}

func (h *RecordsHandler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	deleteRecord(w, r, h.log, h.store.Patients)
}

func validatePatient(_ *http.Request, p *domain.Patient) error {
	if p.Nombre == "" {
		return fmt.Errorf("%w: nombre is required", errBadRequest)
	}
	return nil
}

// Payments

func (h *RecordsHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	if status := r.URL.Query().Get("status"); status != "" {
		listVisible(w, r, h.log, h.store.PaymentsByStatus(domain.PaymentStatus(status)))
		return
	}
	listVisible(w, r, h.log, h.store.Payments.List())
}

func (h *RecordsHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	createRecord(w, r, h.log, h.store.Payments, validatePayment)
}

// UpdatePayment replaces the editable fields; the status only moves
// through PayPayment and MarkPaymentOverdue.
func (h *RecordsHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	replaceRecord(w, r, h.log, h.store.Payments, validatePayment, func(current domain.Payment, next *domain.Payment) {
		next.Status = current.Status
	})
}

func (h *RecordsHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	deleteRecord(w, r, h.log, h.store.Payments)
}

func (h *RecordsHandler) PayPayment(w http.ResponseWriter, r *http.Request) {
	transition(w, r, h.log, h.store.PayPayment)
}

func (h *RecordsHandler) MarkPaymentOverdue(w http.ResponseWriter, r *http.Request) {
	transition(w, r, h.log, h.store.MarkPaymentOverdue)
}

func validatePayment(_ *http.Request, p *domain.Payment) error {
	if p.PacienteID == "" {
		return fmt.Errorf("%w: paciente_id is required", errBadRequest)
	}
	if p.MontoCents < 0 {
		return fmt.Errorf("%w: monto_cents must not be negative", errBadRequest)
	}
	if p.Status == "" {
		p.Status = domain.PaymentPendiente
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", errBadRequest, p.Status)
	}
	return nil
}

// Requisitions

func (h *RecordsHandler) ListRequisitions(w http.ResponseWriter, r *http.Request) {
	if estado := r.URL.Query().Get("estado"); estado != "" {
		listVisible(w, r, h.log, h.store.RequisitionsByEstado(domain.RequisitionEstado(estado)))
		return
	}
	listVisible(w, r, h.log, h.store.Requisitions.List())
}

func (h *RecordsHandler) CreateRequisition(w http.ResponseWriter, r *http.Request) {
	createRecord(w, r, h.log, h.store.Requisitions, func(r *http.Request, rq *domain.Requisition) error {
		if err := validateRequisition(r, rq); err != nil {
			return err
		}
		rq.Estado = domain.RequisitionPendiente
		if rq.Solicitante == "" {
			if identity := middleware.IdentityFrom(r.Context()); identity != nil {
				rq.Solicitante = identity.Email
			}
		}
		return nil
	})
}

func (h *RecordsHandler) UpdateRequisition(w http.ResponseWriter, r *http.Request) {
	replaceRecord(w, r, h.log, h.store.Requisitions, validateRequisition, func(current domain.Requisition, next *domain.Requisition) {
		next.Estado = current.Estado
	})
}

func (h *RecordsHandler) DeleteRequisition(w http.ResponseWriter, r *http.Request) {
	deleteRecord(w, r, h.log, h.store.Requisitions)
}

func (h *RecordsHandler) ApproveRequisition(w http.ResponseWriter, r *http.Request) {
	transition(w, r, h.log, h.store.ApproveRequisition)
}

func (h *RecordsHandler) RejectRequisition(w http.ResponseWriter, r *http.Request) {
	transition(w, r, h.log, h.store.RejectRequisition)
}

func validateRequisition(_ *http.Request, req *domain.Requisition) error {
	if req.Tipo == "" {
		return fmt.Errorf("%w: tipo is required", errBadRequest)
	}
	return nil
}

// Calendar events

// ListEvents accepts an optional [from, to) window in RFC 3339 and an
// optional paciente filter.
func (h *RecordsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var events []domain.CalendarEvent
	if q.Get("from") != "" || q.Get("to") != "" {
		from, to, err := parseWindow(q.Get("from"), q.Get("to"))
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		events = h.store.EventsBetween(from, to)
	} else {
		events = h.store.Events.List()
	}
	if paciente := q.Get("paciente"); paciente != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.PacienteID == paciente {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	listVisible(w, r, h.log, events)
}

func (h *RecordsHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	getVisible(w, r, h.log, h.store.Events)
}

func (h *RecordsHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	createRecord(w, r, h.log, h.store.Events, validateEvent)
}

func (h *RecordsHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	replaceRecord(w, r, h.log, h.store.Events, validateEvent, nil)
}

func (h *RecordsHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	deleteRecord(w, r, h.log, h.store.Events)
}

func validateEvent(_ *http.Request, e *domain.CalendarEvent) error {
	if e.Titulo == "" {
		return fmt.Errorf("%w: titulo is required", errBadRequest)
	}
	if e.Tipo == "" {
		e.Tipo = domain.EventOtro
	}
	if !e.Tipo.Valid() {
		return fmt.Errorf("%w: unknown tipo %q", errBadRequest, e.Tipo)
	}
	if !e.Fin.IsZero() && e.Fin.Before(e.Inicio) {
		return fmt.Errorf("%w: fin is before inicio", errBadRequest)
	}
	return nil
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = time.Parse(time.RFC3339, from); err != nil {
			return start, end, errors.Join(errBadRequest, err)
		}
	}
	if to == "" {
		end = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	} else if end, err = time.Parse(time.RFC3339, to); err != nil {
		return start, end, errors.Join(errBadRequest, err)
	}
	return start, end, nil
}

// Shared helpers

func listVisible[T store.Scoped](w http.ResponseWriter, r *http.Request, log *logging.Logger, records []T) {
	writeJSON(w, log, http.StatusOK, store.VisibleSubset(middleware.IdentityFrom(r.Context()), records))
}

// getVisible answers 404 both for missing records and for records the
// caller may not see.
func getVisible[T scopedRecord[T]](w http.ResponseWriter, r *http.Request, log *logging.Logger, c *store.Collection[T]) {
	id := chi.URLParam(r, "id")
	record, err := c.Get(id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	if len(store.VisibleSubset(middleware.IdentityFrom(r.Context()), []T{record})) == 0 {
		writeError(w, log, &store.NotFoundError{Collection: c.Name(), ID: id})
		return
	}
	writeJSON(w, log, http.StatusOK, record)
}

func createRecord[T store.Record[T]](w http.ResponseWriter, r *http.Request, log *logging.Logger, c *store.Collection[T], validate func(*http.Request, *T) error) {
	var record T
	if err := decodeJSON(r, &record); err != nil {
		writeError(w, log, err)
		return
	}
	if err := validate(r, &record); err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusCreated, c.Add(record))
}

// replaceRecord stores the request body over the record named by {id}.
// keep copies fields the body may not change from the current record.
func replaceRecord[T store.Record[T]](w http.ResponseWriter, r *http.Request, log *logging.Logger, c *store.Collection[T], validate func(*http.Request, *T) error, keep func(current T, next *T)) {
	var next T
	if err := decodeJSON(r, &next); err != nil {
		writeError(w, log, err)
		return
	}

	updated, err := c.Modify(chi.URLParam(r, "id"), func(current *T) error {
		if keep != nil {
			keep(*current, &next)
		}
		if err := validate(r, &next); err != nil {
			return err
		}
		*current = next
		return nil
	})
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, updated)
}

func deleteRecord[T store.Record[T]](w http.ResponseWriter, r *http.Request, log *logging.Logger, c *store.Collection[T]) {
	if err := c.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func transition[T any](w http.ResponseWriter, r *http.Request, log *logging.Logger, apply func(id string) (T, error)) {
	record, err := apply(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, record)
}
