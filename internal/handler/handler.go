// Package handler serves the JSON API of the RPS planner.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/rpsplanner/internal/editor"
	appI18n "github.com/pavelanni/rpsplanner/internal/i18n"
	"github.com/pavelanni/rpsplanner/internal/llm"
	"github.com/pavelanni/rpsplanner/internal/model"
	"github.com/pavelanni/rpsplanner/internal/notify"
	"github.com/pavelanni/rpsplanner/internal/payload"
	"github.com/pavelanni/rpsplanner/internal/store"
	"github.com/pavelanni/rpsplanner/internal/validation"
)

const maxBodyBytes = 1 << 20

// Reviewer pre-reviews a document with a language model.
type Reviewer interface {
	ReviewRPS(ctx context.Context, d *editor.Document, course *model.Course, lang string) (*llm.ReviewResult, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	notify   *notify.Service
	reviewer Reviewer
	config   model.AppConfig
}

// New creates a new Handler. reviewer may be nil, which disables
// the review endpoint.
func New(s *store.Store, n *notify.Service, reviewer Reviewer, cfg model.AppConfig) *Handler {
	if n == nil {
		n = notify.New(s, nil)
	}
	return &Handler{store: s, notify: n, reviewer: reviewer, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get("/me", h.handleMe)
			r.Get("/dashboard", h.handleDashboard)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.handleListNotifications)
				r.Get("/unread", h.handleUnreadCount)
				r.Post("/read-all", h.handleMarkAllRead)
				r.Post("/{id}/read", h.handleMarkRead)
			})

			r.Route("/cpl", func(r chi.Router) {
				r.Get("/", h.handleListOutcomes)
				r.Get("/{id}", h.handleGetOutcome)
				r.Group(func(r chi.Router) {
					r.Use(requireRole(model.UserRoleKaprodi, model.UserRoleAdmin))
					r.Post("/", h.handleCreateOutcome)
					r.Post("/import", h.handleImportCatalog)
					r.Put("/{id}", h.handleReplaceOutcome)
					r.Patch("/{id}", h.handlePatchOutcome)
					r.Delete("/{id}", h.handleDeleteOutcome)
				})
			})

			r.Route("/courses", func(r chi.Router) {
				r.Get("/", h.handleListCourses)
				r.Get("/{id}", h.handleGetCourse)
				r.With(requireRole(model.UserRoleKaprodi, model.UserRoleAdmin)).Post("/", h.handleCreateCourse)
			})

			r.Route("/rps", func(r chi.Router) {
				r.Get("/", h.handleListRPS)
				r.Get("/blank", h.handleBlankRPS)
				r.Post("/edit", h.handleEditStateless)
				r.With(requireRole(model.UserRoleDosen)).Post("/", h.handleCreateRPS)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.handleGetRPS)
					r.Get("/view", h.handleViewRPS)
					r.Get("/export", h.handleExportRPS)
					r.Put("/", h.handleSaveRPS)
					r.Delete("/", h.handleDeleteRPS)
					r.Post("/ops", h.handleApplyOps)
					r.Post("/submit", h.handleSubmitRPS)
					r.Group(func(r chi.Router) {
						r.Use(requireRole(model.UserRoleKaprodi))
						r.Post("/approve", h.handleApproveRPS)
						r.Post("/reject", h.handleRejectRPS)
						r.Post("/review", h.handleReviewRPS)
					})
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireRole(model.UserRoleAdmin))
				r.Get("/users", h.handleListUsers)
				r.Post("/users", h.handleCreateUser)
				r.Post("/users/{id}/toggle", h.handleToggleUserActive)
			})
		})
	})
}

// BasePathMiddleware stores the configured base path in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorBody struct {
	Error    string            `json:"error"`
	Fields   validation.Errors `json:"fields,omitempty"`
	Problems []string          `json:"problems,omitempty"`
}

// writeError replies with a translated message.
func writeError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, errorBody{Error: appI18n.T(r.Context(), msgID)})
}

func writeValidation(w http.ResponseWriter, r *http.Request, errs validation.Errors) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{
		Error:  appI18n.T(r.Context(), "ValidationFailed"),
		Fields: errs,
	})
}

// writeStoreError maps store and editor errors to responses.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var schemaErr *payload.SchemaError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "NotFound")
	case errors.Is(err, store.ErrConflict):
		writeError(w, r, http.StatusConflict, "Conflict")
	case errors.Is(err, store.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, "InvalidTransition")
	case errors.Is(err, editor.ErrReadOnly):
		writeError(w, r, http.StatusConflict, "ReadOnlyDocument")
	case errors.As(err, &schemaErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:    appI18n.T(r.Context(), "ValidationFailed"),
			Problems: schemaErr.Problems,
		})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
	}
}

// readBody returns the request body, capped at maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BadRequest")
		return nil, false
	}
	return data, true
}

// decodeJSON decodes the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	data, ok := readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		writeError(w, r, http.StatusBadRequest, "BadRequest")
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "BadRequest")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.UserFromContext(r.Context()))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	d := model.Dashboard{Role: user.Role}

	var err error
	if d.LearningOutcomes, err = h.store.LearningOutcomeCount(); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if d.Courses, err = h.store.CourseCount(); err != nil {
		writeStoreError(w, r, err)
		return
	}
	var owner *int64
	if user.Role == model.UserRoleDosen {
		owner = &user.ID
	}
	if d.RPSByStatus, err = h.store.CountRPSByStatus(owner); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if d.UnreadNotifications, err = h.notify.Unread(r.Context(), user.ID); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
