package handler

import (
	"net/http"
	"strconv"

	appI18n "github.com/pavelanni/rpsplanner/internal/i18n"
	"github.com/pavelanni/rpsplanner/internal/model"
)

const defaultNotificationLimit = 50

type unreadResponse struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	limit := defaultNotificationLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "BadRequest")
			return
		}
		limit = n
	}
	list, err := h.notify.List(r.Context(), user.ID, limit)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	n, err := h.notify.Unread(r.Context(), user.ID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, unreadResponse{
		Count: n,
		Label: appI18n.Tp(r.Context(), "UnreadNotifications", n),
	})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.notify.MarkRead(r.Context(), user.ID, id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	if err := h.notify.MarkAllRead(r.Context(), user.ID); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
