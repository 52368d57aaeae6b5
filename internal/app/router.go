package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stitchline/stitchline-erp/internal/auth"
	"github.com/stitchline/stitchline-erp/internal/hr"
	"github.com/stitchline/stitchline-erp/internal/masters"
	"github.com/stitchline/stitchline-erp/internal/observability"
	"github.com/stitchline/stitchline-erp/internal/orders"
	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
	"github.com/stitchline/stitchline-erp/internal/production"
	"github.com/stitchline/stitchline-erp/jobs"
	"github.com/stitchline/stitchline-erp/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Metrics           *observability.Metrics
	AuthHandler       *auth.Handler
	HRHandler         *hr.Handler
	MastersHandler    *masters.Handler
	OrdersHandler     *orders.Handler
	ProductionHandler *production.Handler
	ReportHandler     *report.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Stitchline defaults. Every module except auth and
// the mapping feed sits behind the bearer-token guard.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported on "+r.URL.Path)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	guard := params.AuthHandler.Guard()

	if params.HRHandler != nil {
		r.Route("/hr", func(r chi.Router) {
			// The websocket feed authenticates through its own query token.
			params.HRHandler.MountFeed(r)
			r.Group(func(r chi.Router) {
				r.Use(guard)
				params.HRHandler.MountRoutes(r)
			})
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(guard)

		if params.MastersHandler != nil {
			r.Route("/it/masters", params.MastersHandler.MountRoutes)
		}
		if params.OrdersHandler != nil {
			r.Route("/it/orders", params.OrdersHandler.MountRoutes)
		}
		if params.ProductionHandler != nil {
			r.Route("/production", params.ProductionHandler.MountRoutes)
		}
		if params.ReportHandler != nil {
			r.Route("/reports", params.ReportHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
