package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/milkline/milkline/internal/dispatch"
	"github.com/milkline/milkline/internal/masterdata"
	"github.com/milkline/milkline/internal/platform/httpx"
	"github.com/milkline/milkline/internal/procurement"
	"github.com/milkline/milkline/internal/quality"
	"github.com/milkline/milkline/internal/recycle"
	"github.com/milkline/milkline/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	MasterDataHandler  *masterdata.Handler
	ProcurementHandler *procurement.Handler
	DispatchHandler    *dispatch.Handler
	RecycleHandler     *recycle.Handler
	JobsHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Milkline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// States with coefficient entries, for form dropdowns.
	r.Get("/states", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{"states": quality.States()})
	})

	if params.MasterDataHandler != nil {
		r.Route("/masterdata", params.MasterDataHandler.MountRoutes)
	}
	if params.ProcurementHandler != nil {
		r.Route("/procurement", params.ProcurementHandler.MountRoutes)
	}
	if params.DispatchHandler != nil {
		r.Route("/dispatch", params.DispatchHandler.MountRoutes)
	}
	if params.RecycleHandler != nil {
		r.Route("/recycle", params.RecycleHandler.MountRoutes)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}
