package directory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
	"github.com/ovaprima-erp/ovaprima-erp/internal/platform/httpx"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
)

// Handler serves the user directory endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

// MountRoutes registers directory routes. The /me surface only needs an
// authenticated identity so unprovisioned accounts can see their own
// pending state; everything else sits behind manage_users.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny())
		r.Get("/me", h.showMe)
		r.Post("/me/refresh", h.refreshMe)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(authz.PermManageUsers))
		r.Get("/", h.listUsers)
		r.Post("/", h.createUser)
		r.Put("/{id}/role", h.updateRole)
		r.Put("/{id}/active", h.setActive)
	})
}

type userResponse struct {
	ID         int64     `json:"id"`
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toResponse(u User) userResponse {
	return userResponse{
		ID:         u.ID,
		IdentityID: u.IdentityID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role.String(),
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func (h *Handler) showMe(w http.ResponseWriter, r *http.Request) {
	subject := authz.SubjectFromContext(r.Context())
	if !subject.Provisioned() {
		httpx.JSON(w, http.StatusOK, map[string]any{"pending_setup": true})
		return
	}
	user, err := h.service.ByIdentity(r.Context(), subject.Identity.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.JSON(w, http.StatusOK, map[string]any{"pending_setup": true})
			return
		}
		h.logger.Error("load own record", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": toResponse(*user)})
}

func (h *Handler) refreshMe(w http.ResponseWriter, r *http.Request) {
	subject := authz.SubjectFromContext(r.Context())
	if subject.Identity != nil {
		h.service.Refresh(subject.Identity.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

type createUserRequest struct {
	IdentityID string `json:"identity_id" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role" validate:"required"`
	IsActive   *bool  `json:"is_active"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	user, err := h.service.Create(r.Context(), CreateInput{
		IdentityID: req.IdentityID,
		Email:      req.Email,
		Name:       req.Name,
		Role:       role,
		IsActive:   active,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyBound) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "identity already has a user record")
			return
		}
		h.logger.Error("create user", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"user": toResponse(*user)})
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body must be valid JSON")
		return
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, err := h.service.UpdateRole(r.Context(), id, role)
	if err != nil {
		h.respondMutationError(w, err, "update role")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": toResponse(*user)})
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req setActiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body must be valid JSON")
		return
	}
	if req.IsActive == nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "is_active is required")
		return
	}
	user, err := h.service.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		h.respondMutationError(w, err, "set active")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": toResponse(*user)})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondMutationError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
