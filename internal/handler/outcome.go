package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pavelanni/rpsplanner/internal/catalog"
	appI18n "github.com/pavelanni/rpsplanner/internal/i18n"
	"github.com/pavelanni/rpsplanner/internal/validation"
)

func (h *Handler) handleListOutcomes(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListLearningOutcomes()
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetOutcome(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	o, err := h.store.GetLearningOutcome(id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) handleCreateOutcome(w http.ResponseWriter, r *http.Request) {
	var in validation.LearningOutcomeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := in.Check(appI18n.Lang(r.Context())); len(errs) > 0 {
		writeValidation(w, r, errs)
		return
	}
	id, err := h.store.CreateLearningOutcome(in.Model())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.respondOutcome(w, r, http.StatusCreated, id)
}

func (h *Handler) handleReplaceOutcome(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in validation.LearningOutcomeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	h.updateOutcome(w, r, id, in)
}

// handlePatchOutcome changes only the members present in the body.
func (h *Handler) handlePatchOutcome(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var p validation.LearningOutcomePatch
	if !decodeJSON(w, r, &p) {
		return
	}
	cur, err := h.store.GetLearningOutcome(id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.updateOutcome(w, r, id, p.Merge(cur))
}

func (h *Handler) updateOutcome(w http.ResponseWriter, r *http.Request, id int64, in validation.LearningOutcomeInput) {
	if errs := in.Check(appI18n.Lang(r.Context())); len(errs) > 0 {
		writeValidation(w, r, errs)
		return
	}
	o := in.Model()
	o.ID = id
	if err := h.store.UpdateLearningOutcome(o); err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.respondOutcome(w, r, http.StatusOK, id)
}

func (h *Handler) respondOutcome(w http.ResponseWriter, r *http.Request, status int, id int64) {
	o, err := h.store.GetLearningOutcome(id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, status, o)
}

func (h *Handler) handleDeleteOutcome(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteLearningOutcome(id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	slog.Info("deleted cpl", "id", id, "by", currentUsername(r))
	w.WriteHeader(http.StatusNoContent)
}

// handleImportCatalog imports a YAML catalog sent as the request body.
func (h *Handler) handleImportCatalog(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	res, err := catalog.Import(h.store, data)
	var invalid *catalog.InvalidError
	switch {
	case errors.Is(err, catalog.ErrMalformed):
		writeError(w, r, http.StatusBadRequest, "BadRequest")
		return
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:    appI18n.T(r.Context(), "ValidationFailed"),
			Problems: invalid.Problems,
		})
		return
	case err != nil:
		writeStoreError(w, r, err)
		return
	}
	slog.Info("imported catalog", "skipped", res.Skipped, "inserted", res.Inserted,
		"updated", res.Updated, "courses", res.Courses, "by", currentUsername(r))
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleListCourses(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListCourses()
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.store.GetCourse(id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var in validation.CourseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := in.Check(appI18n.Lang(r.Context())); len(errs) > 0 {
		writeValidation(w, r, errs)
		return
	}
	id, err := h.store.CreateCourse(in.Model())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	c, err := h.store.GetCourse(id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
