package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pavelanni/rpsplanner/internal/editor"
	"github.com/pavelanni/rpsplanner/internal/export"
	appI18n "github.com/pavelanni/rpsplanner/internal/i18n"
	"github.com/pavelanni/rpsplanner/internal/model"
	"github.com/pavelanni/rpsplanner/internal/payload"
	"github.com/pavelanni/rpsplanner/internal/store"
	"github.com/pavelanni/rpsplanner/internal/validation"
)

type opsRequest struct {
	Ops []editor.Op `json:"ops"`
}

type editRequest struct {
	Document json.RawMessage `json:"document"`
	Ops      []editor.Op     `json:"ops"`
}

type editResponse struct {
	Document payload.Document `json:"document"`
	View     editor.View      `json:"view"`
}

type noteRequest struct {
	Note string `json:"note"`
}

// canView reports whether user may read r. Lecturers see their own documents.
func canView(user *model.User, r model.RPS) bool {
	return user.Role != model.UserRoleDosen || r.OwnerID == user.ID
}

// loadRPS fetches the document named by the id URL parameter and checks
// that the current user may read it.
func (h *Handler) loadRPS(w http.ResponseWriter, r *http.Request) (model.RPS, bool) {
	id, ok := idParam(w, r)
	if !ok {
		return model.RPS{}, false
	}
	doc, err := h.store.GetRPS(id)
	if err != nil {
		writeStoreError(w, r, err)
		return doc, false
	}
	if !canView(model.UserFromContext(r.Context()), doc) {
		writeError(w, r, http.StatusForbidden, "Forbidden")
		return doc, false
	}
	return doc, true
}

// loadOwnRPS is loadRPS restricted to the owner of the document.
func (h *Handler) loadOwnRPS(w http.ResponseWriter, r *http.Request) (model.RPS, bool) {
	doc, ok := h.loadRPS(w, r)
	if !ok {
		return doc, false
	}
	if doc.OwnerID != model.UserFromContext(r.Context()).ID {
		writeError(w, r, http.StatusForbidden, "Forbidden")
		return doc, false
	}
	return doc, true
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) ([]model.LearningOutcome, bool) {
	cpl, err := h.store.ListLearningOutcomes()
	if err != nil {
		writeStoreError(w, r, err)
		return nil, false
	}
	return cpl, true
}

// hydrate validates raw against the document schema and builds the editor
// document from it.
func (h *Handler) hydrate(w http.ResponseWriter, r *http.Request, raw []byte) (*editor.Document, bool) {
	wire, err := payload.Decode(raw)
	var schemaErr *payload.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		writeStoreError(w, r, err)
		return nil, false
	case err != nil:
		writeError(w, r, http.StatusBadRequest, "BadRequest")
		return nil, false
	}
	cpl, ok := h.catalog(w, r)
	if !ok {
		return nil, false
	}
	return payload.Hydrate(wire, cpl), true
}

// checkCourse rejects a document that names a course that does not exist.
func (h *Handler) checkCourse(w http.ResponseWriter, r *http.Request, f model.RPSForm) bool {
	if f.CourseID == 0 {
		return true
	}
	_, err := h.store.GetCourse(f.CourseID)
	if errors.Is(err, store.ErrNotFound) {
		writeValidation(w, r, validation.Errors{"mata_kuliah_id": appI18n.T(r.Context(), "NotFound")})
		return false
	}
	if err != nil {
		writeStoreError(w, r, err)
		return false
	}
	return true
}

func (h *Handler) respondRPS(w http.ResponseWriter, r *http.Request, status int, id int64) {
	doc, err := h.store.GetRPS(id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, status, payload.FromRPS(doc))
}

// courseLabel names the course of a document for notifications.
func (h *Handler) courseLabel(ctx context.Context, courseID int64) string {
	if courseID != 0 {
		if c, err := h.store.GetCourse(courseID); err == nil {
			return c.Code + " " + c.Name
		}
	}
	return appI18n.T(ctx, "UntitledCourse")
}

func (h *Handler) handleListRPS(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	var filter store.RPSFilter
	if user.Role == model.UserRoleDosen {
		filter.OwnerID = &user.ID
	}
	if s := strings.ToLower(r.URL.Query().Get("status")); s != "" {
		filter.Status = model.RPSStatus(s)
	}
	list, err := h.store.ListRPS(filter)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleBlankRPS returns a new document with one empty CPMK.
func (h *Handler) handleBlankRPS(w http.ResponseWriter, r *http.Request) {
	cpl, ok := h.catalog(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, payload.Serialize(editor.New(cpl)))
}

func (h *Handler) handleCreateRPS(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, ok := h.hydrate(w, r, raw)
	if !ok {
		return
	}
	next := doc.RPS()
	if !h.checkCourse(w, r, next.Form) {
		return
	}
	next.ID = model.NewEntry()
	next.OwnerID = user.ID
	next.Status = model.RPSDraft
	next.ReviewNote = ""

	id, err := h.store.SaveRPS(next)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	slog.Info("created rps", "id", id, "owner", user.Username)
	h.respondRPS(w, r, http.StatusCreated, id)
}

func (h *Handler) handleGetRPS(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadRPS(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, payload.FromRPS(doc))
}

// handleViewRPS returns the rendered document with references resolved.
func (h *Handler) handleViewRPS(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadRPS(w, r)
	if !ok {
		return
	}
	cpl, ok := h.catalog(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, editor.Render(editor.FromRPS(doc, cpl)))
}

// saveEdited stores doc over stored. Identity, owner and review note come
// from the stored record. A rejected document goes back to draft.
func (h *Handler) saveEdited(w http.ResponseWriter, r *http.Request, stored model.RPS, doc *editor.Document) {
	next := doc.RPS()
	if !h.checkCourse(w, r, next.Form) {
		return
	}
	next.ID = stored.ID
	next.OwnerID = stored.OwnerID
	next.Status = stored.Status
	if stored.Status == model.RPSRejected {
		next.Status = model.RPSDraft
	}
	next.ReviewNote = stored.ReviewNote

	id, err := h.store.SaveRPS(next)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.respondRPS(w, r, http.StatusOK, id)
}

func (h *Handler) handleSaveRPS(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.loadOwnRPS(w, r)
	if !ok {
		return
	}
	if !stored.Status.Editable() {
		writeError(w, r, http.StatusConflict, "ReadOnlyDocument")
		return
	}
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, ok := h.hydrate(w, r, raw)
	if !ok {
		return
	}
	h.saveEdited(w, r, stored, doc)
}

// handleApplyOps applies a batch of edit operations to a stored document.
func (h *Handler) handleApplyOps(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.loadOwnRPS(w, r)
	if !ok {
		return
	}
	var req opsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cpl, ok := h.catalog(w, r)
	if !ok {
		return
	}
	doc := editor.FromRPS(stored, cpl)
	doc.SetReadOnly(!stored.Status.Editable())
	if err := editor.Apply(doc, req.Ops); err != nil {
		writeOpError(w, r, err)
		return
	}
	h.saveEdited(w, r, stored, doc)
}

// handleEditStateless applies ops to a document sent in the request and
// returns the result without storing anything.
func (h *Handler) handleEditStateless(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Document) == 0 {
		writeError(w, r, http.StatusBadRequest, "BadRequest")
		return
	}
	doc, ok := h.hydrate(w, r, req.Document)
	if !ok {
		return
	}
	doc.SetReadOnly(!doc.Status().Editable())
	if err := editor.Apply(doc, req.Ops); err != nil {
		writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, editResponse{Document: payload.Serialize(doc), View: editor.Render(doc)})
}

func writeOpError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, editor.ErrReadOnly) {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{
		Error:    appI18n.T(r.Context(), "ValidationFailed"),
		Problems: []string{err.Error()},
	})
}

func (h *Handler) handleDeleteRPS(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.loadOwnRPS(w, r)
	if !ok {
		return
	}
	if !stored.Status.Editable() {
		writeError(w, r, http.StatusConflict, "ReadOnlyDocument")
		return
	}
	id, _ := stored.ID.Value()
	if err := h.store.DeleteRPS(id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	slog.Info("deleted rps", "id", id, "owner", currentUsername(r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmitRPS(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.loadOwnRPS(w, r)
	if !ok {
		return
	}
	id, _ := stored.ID.Value()
	if err := h.store.SetRPSStatus(id, model.RPSSubmitted, stored.ReviewNote); err != nil {
		writeStoreError(w, r, err)
		return
	}
	user := model.UserFromContext(r.Context())
	course := h.courseLabel(r.Context(), stored.Form.CourseID)
	if err := h.notify.Submitted(r.Context(), id, course, user.DisplayName); err != nil {
		slog.Error("failed to notify reviewers", "rps_id", id, "error", err)
	}
	h.respondRPS(w, r, http.StatusOK, id)
}

func (h *Handler) handleApproveRPS(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, model.RPSApproved)
}

func (h *Handler) handleRejectRPS(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, model.RPSRejected)
}

// review closes the review of a submitted document and tells its owner.
// A rejection needs a note.
func (h *Handler) review(w http.ResponseWriter, r *http.Request, status model.RPSStatus) {
	stored, ok := h.loadRPS(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	req.Note = strings.TrimSpace(req.Note)
	if status == model.RPSRejected && !validation.Meaningful(req.Note) {
		writeValidation(w, r, validation.Errors{"note": appI18n.T(r.Context(), "ValidationFailed")})
		return
	}

	id, _ := stored.ID.Value()
	if err := h.store.SetRPSStatus(id, status, req.Note); err != nil {
		writeStoreError(w, r, err)
		return
	}
	course := h.courseLabel(r.Context(), stored.Form.CourseID)
	if err := h.notify.Reviewed(r.Context(), stored.OwnerID, id, status, course, req.Note); err != nil {
		slog.Error("failed to notify owner", "rps_id", id, "error", err)
	}
	slog.Info("reviewed rps", "id", id, "status", status, "by", currentUsername(r))
	h.respondRPS(w, r, http.StatusOK, id)
}

// handleReviewRPS asks the language model for a pre-review.
func (h *Handler) handleReviewRPS(w http.ResponseWriter, r *http.Request) {
	if h.reviewer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "NoReviewer")
		return
	}
	stored, ok := h.loadRPS(w, r)
	if !ok {
		return
	}
	cpl, ok := h.catalog(w, r)
	if !ok {
		return
	}
	var course *model.Course
	if stored.Form.CourseID != 0 {
		if c, err := h.store.GetCourse(stored.Form.CourseID); err == nil {
			course = &c
		}
	}
	res, err := h.reviewer.ReviewRPS(r.Context(), editor.FromRPS(stored, cpl), course, appI18n.Lang(r.Context()))
	if err != nil {
		slog.Error("LLM review failed", "error", err)
		writeError(w, r, http.StatusBadGateway, "InternalError")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleExportRPS(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.loadRPS(w, r)
	if !ok {
		return
	}
	id, _ := stored.ID.Value()
	e, err := h.store.ExportRPS(id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	switch format := strings.ToLower(r.URL.Query().Get("format")); format {
	case "", "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="rps-%d.xlsx"`, id))
		err = export.WriteXLSX(w, e)
	case "json":
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="rps-%d.json"`, id))
		err = export.WriteJSON(w, e)
	default:
		writeError(w, r, http.StatusBadRequest, "BadRequest")
		return
	}
	if err != nil {
		slog.Error("export failed", "rps_id", id, "error", err)
	}
}
