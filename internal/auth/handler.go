package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
	"github.com/ovaprima-erp/ovaprima-erp/internal/platform/httpx"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
)

// SnapshotInvalidator drops cached subject snapshots when an identity's
// session state changes.
type SnapshotInvalidator interface {
	Invalidate(identityID string)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	snapshots      SnapshotInvalidator
	authzMW        authz.Middleware
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, snapshots SnapshotInvalidator, authzMW authz.Middleware) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		snapshots:      snapshots,
		authzMW:        authzMW,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.showSession)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ident, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("authenticate", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Email atau password tidak valid")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetIdentity(ident.ID)

	if sess.ID != "" {
		expiresAt := time.Now().Add(h.sessionManager.TTL())
		if err := h.service.RegisterSession(r.Context(), sess.ID, ident.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
			h.logger.Warn("register session", slog.Any("error", err))
		}
	}
	if h.snapshots != nil {
		h.snapshots.Invalidate(ident.ID)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"identity": identityResponse{ID: ident.ID, Email: ident.Email, Name: ident.Name},
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if id := sess.Identity(); id != "" && h.snapshots != nil {
			h.snapshots.Invalidate(id)
		}
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

// showSession reports the caller's authentication and provisioning state.
// Pending setup is a legitimate state, never an error.
func (h *Handler) showSession(w http.ResponseWriter, r *http.Request) {
	subject, err := h.authzMW.ResolveSubject(r.Context())
	if err != nil {
		h.logger.Error("resolve session subject", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Authorization Pending", "authorization state not yet resolved")
		return
	}
	if !subject.Authenticated() {
		httpx.JSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	payload := map[string]any{
		"authenticated": true,
		"identity": identityResponse{
			ID:    subject.Identity.ID,
			Email: subject.Identity.Email,
			Name:  subject.Identity.Name,
		},
	}
	if subject.Provisioned() {
		payload["user"] = map[string]any{
			"id":        subject.User.ID,
			"email":     subject.User.Email,
			"name":      subject.User.Name,
			"role":      subject.User.Role.String(),
			"is_active": subject.User.IsActive,
		}
	} else {
		payload["pending_setup"] = true
	}
	httpx.JSON(w, http.StatusOK, payload)
}
