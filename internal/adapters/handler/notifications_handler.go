package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/middleware"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/access"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/store"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

type NotificationsHandler struct {
	inbox *store.Inbox
	log   *logging.Logger
}

func NewNotificationsHandler(inbox *store.Inbox, log *logging.Logger) *NotificationsHandler {
	return &NotificationsHandler{inbox: inbox, log: log}
}

type NotificationsResponse struct {
	Counts map[domain.Channel]int `json:"counts"`
	Total  int                    `json:"total"`
	Items  []domain.Notification  `json:"items"`
}

// List returns the caller's unread counters and the notifications of
// ?channel=, or of every channel when it is absent.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, view, ok := h.reader(w, r)
	if !ok {
		return
	}
	channel, err := channelParam(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, h.log, http.StatusOK, NotificationsResponse{
		Counts: view.Counts(),
		Total:  view.TotalUnread(),
		Items:  store.VisibleSubset(identity, view.List(channel)),
	})
}

func (h *NotificationsHandler) Push(w http.ResponseWriter, r *http.Request) {
	var n domain.Notification
	if err := decodeJSON(r, &n); err != nil {
		writeError(w, h.log, err)
		return
	}
	if !n.Channel.Valid() {
		writeError(w, h.log, fmt.Errorf("%w: unknown channel %q", errBadRequest, n.Channel))
		return
	}
	if n.Titulo == "" {
		writeError(w, h.log, fmt.Errorf("%w: titulo is required", errBadRequest))
		return
	}
	writeJSON(w, h.log, http.StatusCreated, h.inbox.Push(n))
}

// MarkRead clears ?channel=, or every channel when it is absent, for the
// caller only.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.reader(w, r)
	if !ok {
		return
	}
	channel, err := channelParam(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if channel == "" {
		view.MarkAllAsRead()
	} else {
		view.MarkChannelAsRead(channel)
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"counts": view.Counts(),
		"total":  view.TotalUnread(),
	})
}

func (h *NotificationsHandler) MarkOneRead(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.reader(w, r)
	if !ok {
		return
	}
	if err := view.MarkAsRead(chi.URLParam(r, "id")); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reader scopes the inbox to the session identity.
func (h *NotificationsHandler) reader(w http.ResponseWriter, r *http.Request) (*domain.Identity, *store.ReaderInbox, bool) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil || identity.ID == "" {
		writeJSON(w, h.log, http.StatusUnauthorized, map[string]string{"redirect": access.LoginPath})
		return nil, nil, false
	}
	return identity, h.inbox.For(identity.ID), true
}

func channelParam(r *http.Request) (domain.Channel, error) {
	channel := domain.Channel(r.URL.Query().Get("channel"))
	if channel != "" && !channel.Valid() {
		return "", fmt.Errorf("%w: unknown channel %q", errBadRequest, channel)
	}
	return channel, nil
}
