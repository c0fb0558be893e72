package domain

import (
	"slices"
	"time"
)

type PaymentStatus string

const (
	PaymentPagado    PaymentStatus = "pagado"
	PaymentPendiente PaymentStatus = "pendiente"
	PaymentAtrasado  PaymentStatus = "atrasado"
)

type RequisitionEstado string

const (
	RequisitionPendiente RequisitionEstado = "pendiente"
	RequisitionAprobada  RequisitionEstado = "aprobada"
	RequisitionRechazada RequisitionEstado = "rechazada"
)

type EventTipo string

const (
	EventConsulta    EventTipo = "consulta"
	EventTratamiento EventTipo = "tratamiento"
	EventReunion     EventTipo = "reunion"
	EventVisita      EventTipo = "visita"
	EventOtro        EventTipo = "otro"
)

type Patient struct {
	ID              string `json:"id"`
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido,omitempty"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
	Habitacion      string `json:"habitacion,omitempty"`
	Diagnostico     string `json:"diagnostico,omitempty"`
	Estado          string `json:"estado,omitempty"`
}

func (p Patient) RecordID() string { return p.ID }

func (p Patient) WithID(id string) Patient {
	p.ID = id
	return p
}

// The patient registry is administrative data; a family member only sees
// the patient it is linked to.
func (p Patient) AdminVisible() bool     { return true }
func (p Patient) FamilyVisible() bool    { return false }
func (p Patient) OwnerPatientID() string { return p.ID }

type Payment struct {
	ID         string        `json:"id"`
	PacienteID string        `json:"paciente_id"`
	Concepto   string        `json:"concepto"`
	MontoCents int64         `json:"monto_cents"`
	Vence      string        `json:"vence,omitempty"`
	Status     PaymentStatus `json:"status"`
}

func (p Payment) RecordID() string { return p.ID }

func (p Payment) WithID(id string) Payment {
	p.ID = id
	return p
}

func (p Payment) AdminVisible() bool     { return true }
func (p Payment) FamilyVisible() bool    { return false }
func (p Payment) OwnerPatientID() string { return p.PacienteID }

// CanTransition reports whether a payment may move from s to next.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	switch s {
	case PaymentPendiente:
		return next == PaymentPagado || next == PaymentAtrasado
	case PaymentAtrasado:
		return next == PaymentPagado
	}
	return false
}

type Requisition struct {
	ID          string            `json:"id"`
	PacienteID  string            `json:"paciente_id,omitempty"`
	Tipo        string            `json:"tipo"`
	Descripcion string            `json:"descripcion,omitempty"`
	Solicitante string            `json:"solicitante,omitempty"`
	Estado      RequisitionEstado `json:"estado"`
}

func (r Requisition) RecordID() string { return r.ID }

func (r Requisition) WithID(id string) Requisition {
	r.ID = id
	return r
}

func (r Requisition) AdminVisible() bool     { return true }
func (r Requisition) FamilyVisible() bool    { return false }
func (r Requisition) OwnerPatientID() string { return r.PacienteID }

func (e RequisitionEstado) CanTransition(next RequisitionEstado) bool {
	return e == RequisitionPendiente && (next == RequisitionAprobada || next == RequisitionRechazada)
}

type CalendarEvent struct {
	ID          string    `json:"id"`
	Titulo      string    `json:"titulo"`
	Tipo        EventTipo `json:"tipo"`
	PacienteID  string    `json:"paciente_id,omitempty"`
	Inicio      time.Time `json:"inicio"`
	Fin         time.Time `json:"fin"`
	Descripcion string    `json:"descripcion,omitempty"`
}

func (e CalendarEvent) RecordID() string { return e.ID }

func (e CalendarEvent) WithID(id string) CalendarEvent {
	e.ID = id
	return e
}

// Administrators only see non-clinical events.
func (e CalendarEvent) AdminVisible() bool {
	switch e.Tipo {
	case EventReunion, EventOtro, EventVisita:
		return true
	}
	return false
}

func (e CalendarEvent) FamilyVisible() bool    { return e.Tipo == EventVisita }
func (e CalendarEvent) OwnerPatientID() string { return e.PacienteID }

type Channel string

const (
	ChannelCalendar      Channel = "calendar"
	ChannelMessages      Channel = "messages"
	ChannelAnnouncements Channel = "announcements"
)

var Channels = []Channel{ChannelCalendar, ChannelMessages, ChannelAnnouncements}

type Notification struct {
	ID        string    `json:"id"`
	Channel   Channel   `json:"channel"`
	Titulo    string    `json:"titulo"`
	Mensaje   string    `json:"mensaje,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
	// ReadBy holds the identity ids that have read the notification.
	ReadBy    []string  `json:"read_by,omitempty"`
}

func (n Notification) ReadFor(identityID string) bool {
	return slices.Contains(n.ReadBy, identityID)
}

func (n Notification) RecordID() string { return n.ID }

func (n Notification) WithID(id string) Notification {
	n.ID = id
	return n
}

func (n Notification) AdminVisible() bool     { return true }
func (n Notification) FamilyVisible() bool    { return true }
func (n Notification) OwnerPatientID() string { return "" }

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPagado, PaymentPendiente, PaymentAtrasado:
		return true
	}
	return false
}

func (e RequisitionEstado) Valid() bool {
	switch e {
	case RequisitionPendiente, RequisitionAprobada, RequisitionRechazada:
		return true
	}
	return false
}

func (t EventTipo) Valid() bool {
	switch t {
	case EventConsulta, EventTratamiento, EventReunion, EventVisita, EventOtro:
		return true
	}
	return false
}

func (c Channel) Valid() bool {
	for _, known := range Channels {
		if c == known {
			return true
		}
	}
	return false
}
