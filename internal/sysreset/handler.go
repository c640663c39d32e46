package sysreset

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
	"github.com/ovaprima-erp/ovaprima-erp/internal/platform/httpx"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
)

// Handler serves both reset surfaces: the raw collaborator endpoints
// (reset-preview / reset-data) and the per-session staged workflow. Every
// route sits behind the super-admin guard; everyone else sees a denial,
// the workflow's locked state.
type Handler struct {
	logger   *slog.Logger
	collab   Collaborator
	registry *Registry
	mw       authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, collab Collaborator, registry *Registry, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, collab: collab, registry: registry, mw: mw}
}

// MountRoutes registers system reset routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireSuperAdmin())
		r.Get("/reset-preview", h.showPreview)
		r.Post("/reset-data", h.resetData)
		r.Route("/reset", func(r chi.Router) {
			r.Get("/state", h.workflowState)
			r.Post("/preview", h.workflowPreview)
			r.Post("/proceed", h.workflowProceed)
			r.Post("/phrase", h.workflowPhrase)
			r.Post("/execute", h.workflowExecute)
			r.Post("/cancel", h.workflowCancel)
			r.Post("/dismiss", h.workflowDismiss)
		})
	})
}

// Raw collaborator surface.

func (h *Handler) showPreview(w http.ResponseWriter, r *http.Request) {
	preview, total, err := h.collab.Preview(r.Context())
	if err != nil {
		h.logger.Error("reset preview", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, map[string]string{"error": shared.UserSafeMessage(err)})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"preview":                 preview,
		"total_records_to_delete": total,
	})
}

type resetDataRequest struct {
	ConfirmationCode      string `json:"confirmation_code"`
	ConfirmationTimestamp string `json:"confirmation_timestamp"`
}

func (h *Handler) resetData(w http.ResponseWriter, r *http.Request) {
	var req resetDataRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "body must be valid JSON"})
		return
	}
	confirmedAt, err := time.Parse(time.RFC3339, req.ConfirmationTimestamp)
	if err != nil {
		confirmedAt = time.Now().UTC()
	}
	subject := authz.SubjectFromContext(r.Context())
	report, err := h.collab.Execute(r.Context(), req.ConfirmationCode, confirmedAt, h.actorID(subject))
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Error("reset execute", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, map[string]string{"error": shared.UserSafeMessage(err)})
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// Staged workflow surface. Each action responds with the resulting status
// so the client never needs a second fetch.

type statusResponse struct {
	Phase    string   `json:"phase"`
	Preview  *Preview `json:"preview,omitempty"`
	Total    int64    `json:"total_records_to_delete"`
	InFlight bool     `json:"in_flight"`
	Message  string   `json:"message,omitempty"`
	Report   *Report  `json:"report,omitempty"`
}

func toStatusResponse(st Status) statusResponse {
	return statusResponse{
		Phase:    st.Phase.String(),
		Preview:  st.Preview,
		Total:    st.Total,
		InFlight: st.InFlight,
		Message:  st.Message,
		Report:   st.Report,
	}
}

func (h *Handler) workflow(r *http.Request) *Workflow {
	sess := shared.SessionFromContext(r.Context())
	sessionID := ""
	if sess != nil {
		sessionID = sess.ID
	}
	return h.registry.For(sessionID)
}

func (h *Handler) respondStatus(w http.ResponseWriter, flow *Workflow, status int) {
	httpx.JSON(w, status, toStatusResponse(flow.Status()))
}

func (h *Handler) workflowState(w http.ResponseWriter, r *http.Request) {
	h.respondStatus(w, h.workflow(r), http.StatusOK)
}

func (h *Handler) workflowPreview(w http.ResponseWriter, r *http.Request) {
	flow := h.workflow(r)
	if err := flow.LoadPreview(r.Context()); err != nil {
		h.respondWorkflowError(w, flow, err, "workflow preview")
		return
	}
	h.respondStatus(w, flow, http.StatusOK)
}

func (h *Handler) workflowProceed(w http.ResponseWriter, r *http.Request) {
	flow := h.workflow(r)
	if err := flow.Proceed(); err != nil {
		h.respondWorkflowError(w, flow, err, "workflow proceed")
		return
	}
	h.respondStatus(w, flow, http.StatusOK)
}

type phraseRequest struct {
	Phrase string `json:"phrase"`
}

func (h *Handler) workflowPhrase(w http.ResponseWriter, r *http.Request) {
	var req phraseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body must be valid JSON")
		return
	}
	flow := h.workflow(r)
	if err := flow.SubmitPhrase(req.Phrase); err != nil {
		h.respondWorkflowError(w, flow, err, "workflow phrase")
		return
	}
	h.respondStatus(w, flow, http.StatusOK)
}

func (h *Handler) workflowExecute(w http.ResponseWriter, r *http.Request) {
	flow := h.workflow(r)
	subject := authz.SubjectFromContext(r.Context())
	if _, err := flow.Execute(r.Context(), h.actorID(subject)); err != nil {
		h.respondWorkflowError(w, flow, err, "workflow execute")
		return
	}
	h.respondStatus(w, flow, http.StatusOK)
}

func (h *Handler) workflowCancel(w http.ResponseWriter, r *http.Request) {
	flow := h.workflow(r)
	if err := flow.Cancel(); err != nil {
		h.respondWorkflowError(w, flow, err, "workflow cancel")
		return
	}
	h.respondStatus(w, flow, http.StatusOK)
}

func (h *Handler) workflowDismiss(w http.ResponseWriter, r *http.Request) {
	flow := h.workflow(r)
	if err := flow.Dismiss(); err != nil {
		h.respondWorkflowError(w, flow, err, "workflow dismiss")
		return
	}
	h.respondStatus(w, flow, http.StatusOK)
}

func (h *Handler) respondWorkflowError(w http.ResponseWriter, flow *Workflow, err error, op string) {
	switch {
	case errors.Is(err, ErrPhraseMismatch):
		h.respondStatus(w, flow, http.StatusBadRequest)
	case errors.Is(err, ErrWrongPhase), errors.Is(err, ErrInFlight):
		h.respondStatus(w, flow, http.StatusConflict)
	default:
		// Collaborator failure; the workflow already recorded the message
		// and moved to a safe, re-triable phase.
		h.logger.Error(op, slog.Any("error", err))
		h.respondStatus(w, flow, http.StatusBadGateway)
	}
}

func (h *Handler) actorID(subject authz.Subject) string {
	if subject.Identity != nil {
		return subject.Identity.ID
	}
	return "unknown"
}
