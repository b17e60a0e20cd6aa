package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vetrina-erp/vetrina-erp/internal/auth"
	"github.com/vetrina-erp/vetrina-erp/internal/ledger"
	"github.com/vetrina-erp/vetrina-erp/internal/platform/httpx"
	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
	"github.com/vetrina-erp/vetrina-erp/internal/rbac"
)

// Handler manages budget and order endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	ledger   *ledger.Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, ledgerSvc *ledger.Service, validate *validator.Validate, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		ledger:   ledgerSvc,
		validate: validate,
		rbac:     rbacMW,
	}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("orders.view"))
		r.Get("/orders", h.list)
		r.Get("/orders/{id}", h.show)
		r.Get("/orders/{id}/totals", h.totals)
		r.Get("/orders/{id}/timeline", h.timeline)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll("orders.create"))
		r.Post("/orders", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll("orders.edit"))
		r.Put("/orders/{id}", h.update)
		r.Post("/orders/{id}/items", h.addItem)
		r.Put("/orders/{id}/items/{itemID}", h.updateItem)
		r.Delete("/orders/{id}/items/{itemID}", h.removeItem)
		r.Post("/orders/{id}/items/{itemID}/duplicate", h.duplicateItem)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll("orders.price"))
		r.Post("/orders/{id}/items/{itemID}/price", h.manualPrice)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll("orders.lifecycle"))
		r.Post("/orders/{id}/send", h.send)
		r.Post("/orders/{id}/accept", h.accept)
		r.Post("/orders/{id}/reject", h.reject)
		r.Post("/orders/{id}/start-production", h.startProduction)
		r.Post("/orders/{id}/complete", h.complete)
		r.Post("/orders/{id}/cancel", h.cancel)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll("orders.confirm"))
		r.Post("/orders/{id}/items/{itemID}/fields/{field}/confirm", h.confirmField)
		r.Post("/orders/{id}/tranches/{tranche}/confirm", h.confirmTranche)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListOrdersRequest{
		Kind:   DocumentKind(r.URL.Query().Get("kind")),
		Status: Status(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("client_id"); v != "" {
		req.ClientID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		req.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		req.Offset, _ = strconv.Atoi(v)
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	docs, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"orders": docs,
		"total":  total,
		"limit":  req.Limit,
		"offset": req.Offset,
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) totals(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.service.Totals(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	o, err := h.service.Create(r.Context(), req, auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	o, err := h.service.UpdateHeader(r.Context(), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

// ============================================================================
// ITEM HANDLERS
// ============================================================================

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req CreateLineItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	item, err := h.service.AddItem(r.Context(), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}
	var req UpdateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	item, err := h.service.UpdateItem(r.Context(), orderID, itemID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.service.RemoveItem(r.Context(), orderID, itemID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) duplicateItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}
	item, err := h.service.DuplicateItem(r.Context(), orderID, itemID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) manualPrice(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}
	var req ManualPriceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	factor, err := h.service.ApplyManualPrice(r.Context(), orderID, itemID, req, auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"calculation_factor": factor})
}

// ============================================================================
// LIFECYCLE HANDLERS
// ============================================================================

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*Order, error) {
		return h.service.SendBudget(r.Context(), id)
	})
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*Order, error) {
		return h.service.AcceptBudget(r.Context(), id, auth.UserIDFromContext(r.Context()))
	})
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*Order, error) {
		return h.service.RejectBudget(r.Context(), id)
	})
}

func (h *Handler) startProduction(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*Order, error) {
		return h.service.StartProduction(r.Context(), id)
	})
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*Order, error) {
		return h.service.CompleteOrder(r.Context(), id)
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*Order, error) {
		return h.service.CancelOrder(r.Context(), id)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(int64) (*Order, error)) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	o, err := fn(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

// ============================================================================
// LEDGER HANDLERS
// ============================================================================

func (h *Handler) confirmField(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}

	entry, err := h.ledger.ConfirmItemField(r.Context(), ledger.ConfirmItemFieldInput{
		OrderID: orderID,
		ItemID:  itemID,
		Field:   pricing.CostField(chi.URLParam(r, "field")),
		ActorID: auth.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) confirmTranche(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.ledger.ConfirmTranche(r.Context(), ledger.ConfirmTrancheInput{
		OrderID: orderID,
		Tranche: ledger.Tranche(chi.URLParam(r, "tranche")),
		ActorID: auth.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	filter := ledger.TimelineFilter{OrderID: orderID}
	if v := r.URL.Query().Get("page"); v != "" {
		filter.Page, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		filter.PageSize, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("kind"); v != "" {
		filter.Kind = ledger.EntryKind(v)
	}
	if v := r.URL.Query().Get("item_id"); v != "" {
		filter.ItemID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("actor_id"); v != "" {
		filter.ActorID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("from"); v != "" {
		filter.From, _ = time.Parse("2006-01-02", v)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		filter.To, _ = time.Parse("2006-01-02", v)
	}

	result, err := h.ledger.Timeline(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "path parameter "+name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ledger.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAlreadyExists):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrNotEditable),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrNotABudget),
		errors.Is(err, ErrNotAnOrder),
		errors.Is(err, ledger.ErrAlreadyConfirmed),
		errors.Is(err, ledger.ErrFieldLocked),
		errors.Is(err, ledger.ErrRealValueNotSet):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ledger.ErrUnknownField),
		errors.Is(err, ledger.ErrUnknownTranche),
		errors.Is(err, pricing.ErrNonPositivePrice):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("orders request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
