package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ovaprima-erp/ovaprima-erp/internal/auth"
	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
	"github.com/ovaprima-erp/ovaprima-erp/internal/directory"
	"github.com/ovaprima-erp/ovaprima-erp/internal/observability"
	"github.com/ovaprima-erp/ovaprima-erp/internal/platform/httpx"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
	"github.com/ovaprima-erp/ovaprima-erp/internal/sysreset"
	"github.com/ovaprima-erp/ovaprima-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	DirectoryHandler *directory.Handler
	MenuHandler      *authz.MenuHandler
	ResetHandler     *sysreset.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Ovaprima defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Hand the session's CSRF token to the SPA before any mutating call.
	r.Get("/api/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			params.Logger.Error("ensure csrf token", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
	})

	r.Route("/api/auth", params.AuthHandler.MountRoutes)
	r.Route("/api/users", params.DirectoryHandler.MountRoutes)
	r.Route("/api/menu", params.MenuHandler.MountRoutes)
	r.Route("/api/system", params.ResetHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/api/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
