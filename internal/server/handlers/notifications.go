package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ambientdeck/ambientdeck/internal/core/notify"
	apperrors "github.com/ambientdeck/ambientdeck/internal/errors"
)

// NotificationsResponse lists the active notifications.
type NotificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
}

// NotificationsHandler exposes the notification feed.
type NotificationsHandler struct {
	Center *notify.Center
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	active := h.Center.Active()
	if active == nil {
		active = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, NotificationsResponse{Notifications: active})
}

func (h *NotificationsHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	if !h.Center.Dismiss(chi.URLParam(r, "id")) {
		respondWithError(w, r, apperrors.NewNotFoundError("notification not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
