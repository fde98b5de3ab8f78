package handler

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/pavelanni/rpsplanner/internal/i18n"
	"github.com/pavelanni/rpsplanner/internal/model"
	"github.com/pavelanni/rpsplanner/internal/validation"
)

type toggleResponse struct {
	ID     int64 `json:"id"`
	Active bool  `json:"active"`
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in validation.UserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := in.Check(appI18n.Lang(r.Context())); len(errs) > 0 {
		writeValidation(w, r, errs)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	id, err := h.store.CreateUser(model.User{
		Username:     in.Username,
		DisplayName:  in.DisplayName,
		NIP:          in.NIP,
		PasswordHash: string(hash),
		Role:         model.UserRole(in.Role),
		Active:       true,
	})
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	user, err := h.store.GetUserByID(id)
	if err != nil || user == nil {
		slog.Error("failed to reload user", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	slog.Info("created user", "username", user.Username, "role", user.Role, "by", currentUsername(r))
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if self := model.UserFromContext(r.Context()); self.ID == id {
		writeError(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	active, err := h.store.ToggleUserActive(id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{ID: id, Active: active})
}
