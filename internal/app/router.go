package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vetrina-erp/vetrina-erp/internal/auth"
	"github.com/vetrina-erp/vetrina-erp/internal/factors"
	"github.com/vetrina-erp/vetrina-erp/internal/finance"
	"github.com/vetrina-erp/vetrina-erp/internal/masterdata"
	"github.com/vetrina-erp/vetrina-erp/internal/orders"
	"github.com/vetrina-erp/vetrina-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Tokens            *auth.TokenStore
	AuthHandler       *auth.Handler
	OrdersHandler     *orders.Handler
	FinanceHandler    *finance.Handler
	FactorsHandler    *factors.Handler
	MasterDataHandler *masterdata.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Vetrina defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
		Tokens: params.Tokens,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		params.OrdersHandler.MountRoutes(r)
		params.FinanceHandler.MountRoutes(r)
		params.FactorsHandler.MountRoutes(r)
		params.MasterDataHandler.MountRoutes(r)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
