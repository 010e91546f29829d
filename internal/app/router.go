package app

import (
	"context"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/salesadmin/internal/observability"
	"github.com/odyssey-erp/salesadmin/internal/platform/httpx"
	"github.com/odyssey-erp/salesadmin/internal/sales/catalog"
	"github.com/odyssey-erp/salesadmin/internal/sales/customers"
	"github.com/odyssey-erp/salesadmin/internal/sales/dashboard"
	"github.com/odyssey-erp/salesadmin/internal/sales/transactions"
	"github.com/odyssey-erp/salesadmin/internal/shared"
	"github.com/odyssey-erp/salesadmin/web"
)

func init() {
	if mime.TypeByExtension(".css") == "" {
		_ = mime.AddExtensionType(".css", "text/css; charset=utf-8")
	}
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	SessionManager      *shared.SessionManager
	CSRFManager         *shared.CSRFManager
	Metrics             *observability.Metrics
	DashboardHandler    *dashboard.Handler
	TransactionsHandler *transactions.Handler
	CatalogHandler      *catalog.Handler
	CustomersHandler    *customers.Handler
	HealthChecks        map[string]HealthCheck
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", healthHandler(params.HealthChecks))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static files skip sessions and CSRF.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
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

		if params.DashboardHandler != nil {
			r.Get("/", params.DashboardHandler.Show)
		}
		if params.TransactionsHandler != nil {
			r.Route("/sales", params.TransactionsHandler.MountRoutes)
			r.Route("/api/drafts", params.TransactionsHandler.MountAPI)
		}
		if params.CatalogHandler != nil {
			r.Route("/items", params.CatalogHandler.MountRoutes)
		}
		if params.CustomersHandler != nil {
			r.Route("/customers", params.CustomersHandler.MountRoutes)
		}
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httpx.JSON(w, status, resp)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
