package finance

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vetrina-erp/vetrina-erp/internal/platform/httpx"
	"github.com/vetrina-erp/vetrina-erp/internal/rbac"
)

// Handler manages finance read endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes registers finance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("finance.view"))
		r.Get("/finance/receivables", h.receivables)
		r.Get("/finance/receivables/aging", h.aging)
		r.Get("/finance/payables", h.payables)
		r.Get("/finance/commissions", h.commissions)
		r.Get("/finance/overview", h.overview)
	})
}

func (h *Handler) receivables(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Receivables(r.Context())
	if err != nil {
		h.fail(w, "list receivables", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"receivables": out})
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	bucket, err := h.service.Aging(r.Context(), asOf)
	if err != nil {
		h.fail(w, "aging", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bucket)
}

func (h *Handler) payables(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Payables(r.Context())
	if err != nil {
		h.fail(w, "list payables", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payables": out})
}

func (h *Handler) commissions(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Commissions(r.Context())
	if err != nil {
		h.fail(w, "list commissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"commissions": out})
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Overview(r.Context())
	if err != nil {
		h.fail(w, "overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error("finance "+op+" failed", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
