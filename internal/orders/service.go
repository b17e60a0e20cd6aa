package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/vetrina-erp/vetrina-erp/internal/ledger"
	"github.com/vetrina-erp/vetrina-erp/internal/money"
	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

var (
	// ErrNotFound indicates the document or item does not exist.
	ErrNotFound = errors.New("orders: not found")
	// ErrAlreadyExists indicates a duplicate document number.
	ErrAlreadyExists = errors.New("orders: number already exists")
	// ErrNotEditable rejects edits on accepted, rejected, completed or cancelled documents.
	ErrNotEditable = errors.New("orders: document is not editable")
	// ErrInvalidStatus rejects a lifecycle transition from the wrong state.
	ErrInvalidStatus = errors.New("orders: invalid status transition")
	// ErrNotABudget rejects budget transitions on an order.
	ErrNotABudget = errors.New("orders: document is not a budget")
	// ErrNotAnOrder rejects order transitions on a budget.
	ErrNotAnOrder = errors.New("orders: document is not an order")
)

// RepositoryPort defines data access for budgets and orders.
type RepositoryPort interface {
	CreateOrder(ctx context.Context, o Order) (*Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	GetOrderByNumber(ctx context.Context, kind DocumentKind, number string) (*Order, error)
	ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, int, error)
	UpdateHeader(ctx context.Context, o Order) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	InsertItem(ctx context.Context, item pricing.LineItem) (*pricing.LineItem, error)
	UpdateItem(ctx context.Context, item pricing.LineItem) error
	DeleteItem(ctx context.Context, orderID, itemID int64) error
	UpdateItemFactor(ctx context.Context, itemID int64, factor float64) error
	GenerateNumber(ctx context.Context, kind DocumentKind) (string, error)
}

// Service provides business logic for budgets and orders.
type Service struct {
	repo   RepositoryPort
	ledger *ledger.Service
	logger *slog.Logger
}

// NewService constructs an orders service.
func NewService(repo RepositoryPort, ledgerSvc *ledger.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, logger: logger}
}

// Create creates a budget or order with its initial line items.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest, createdBy int64) (*Order, error) {
	existing, err := s.repo.GetOrderByNumber(ctx, req.Kind, req.Number)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing number: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	status := StatusOpen
	if req.Kind == KindBudget {
		status = StatusDraft
	}

	o := Order{
		Number:            req.Number,
		Kind:              req.Kind,
		Status:            status,
		ClientID:          req.ClientID,
		SalespersonID:     req.SalespersonID,
		CommissionPercent: req.CommissionPercent,
		OrderDate:         req.OrderDate,
		DeliveryDeadline:  req.DeliveryDeadline,
		EntryAmount:       req.EntryAmount,
		EntryDate:         req.EntryDate,
		RemainingAmount:   req.RemainingAmount,
		RemainingDate:     req.RemainingDate,
		Notes:             req.Notes,
		CreatedBy:         createdBy,
	}
	for i, lineReq := range req.Lines {
		o.Items = append(o.Items, newItemFromRequest(lineReq, i))
	}

	created, err := s.repo.CreateOrder(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.warnTrancheMismatch(created)
	return created, nil
}

func newItemFromRequest(req CreateLineItemRequest, index int) pricing.LineItem {
	item := pricing.NewLineItem()
	item.ProductID = req.ProductID
	item.ProductName = req.ProductName
	item.SupplierID = req.SupplierID
	item.Quantity = req.Quantity
	item.UnitPrice = req.UnitPrice
	item.CustomizationCost = req.CustomizationCost
	item.LayoutCost = req.LayoutCost
	item.SupplierTransport = req.SupplierTransport
	item.ClientTransport = req.ClientTransport
	item.ExtraExpense = req.ExtraExpense
	if req.Factor != 0 {
		item.Factor = req.Factor
	}
	item.AgencyFeePercent = req.AgencyFeePercent
	item.TaxPercent = req.TaxPercent
	item.ContingencyPercent = req.ContingencyPercent
	item.MarginPercent = req.MarginPercent
	item.LineOrder = req.LineOrder
	if item.LineOrder == 0 {
		item.LineOrder = index + 1
	}
	return item
}

// Get retrieves a document with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

// List returns a filtered page of documents plus the total count.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	return s.repo.ListOrders(ctx, req)
}

// UpdateHeader applies header-level changes to an editable document.
func (s *Service) UpdateHeader(ctx context.Context, id int64, req UpdateOrderRequest) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Editable() {
		return nil, ErrNotEditable
	}

	if req.ClientID != nil {
		o.ClientID = *req.ClientID
	}
	if req.SalespersonID != nil {
		o.SalespersonID = *req.SalespersonID
	}
	if req.CommissionPercent != nil {
		o.CommissionPercent = *req.CommissionPercent
	}
	if req.OrderDate != nil {
		o.OrderDate = *req.OrderDate
	}
	if req.DeliveryDeadline != nil {
		o.DeliveryDeadline = req.DeliveryDeadline
	}
	if req.EntryAmount != nil {
		o.EntryAmount = *req.EntryAmount
	}
	if req.EntryDate != nil {
		o.EntryDate = req.EntryDate
	}
	if req.RemainingAmount != nil {
		o.RemainingAmount = *req.RemainingAmount
	}
	if req.RemainingDate != nil {
		o.RemainingDate = req.RemainingDate
	}
	if req.Notes != nil {
		o.Notes = req.Notes
	}

	if err := s.repo.UpdateHeader(ctx, *o); err != nil {
		return nil, fmt.Errorf("update header: %w", err)
	}
	s.warnTrancheMismatch(o)
	return s.Get(ctx, id)
}

// Totals recomputes the reconciliation snapshot for a document.
func (s *Service) Totals(ctx context.Context, id int64) (*Totals, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t := Aggregate(*o)
	return &t, nil
}

// ============================================================================
// ITEM MANAGEMENT
// ============================================================================

// AddItem appends a line item to an editable document.
func (s *Service) AddItem(ctx context.Context, orderID int64, req CreateLineItemRequest) (*pricing.LineItem, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Editable() {
		return nil, ErrNotEditable
	}

	item := newItemFromRequest(req, len(o.Items))
	item.OrderID = orderID
	created, err := s.repo.InsertItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return created, nil
}

// UpdateItem mutates one line item. Real values whose payment has been
// confirmed are immutable; the whole update is rejected so no partial state
// change occurs.
func (s *Service) UpdateItem(ctx context.Context, orderID, itemID int64, req UpdateItemRequest) (*pricing.LineItem, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Editable() {
		return nil, ErrNotEditable
	}
	item := findItem(o, itemID)
	if item == nil {
		return nil, ErrNotFound
	}

	realUpdates := map[pricing.CostField]*float64{
		pricing.FieldUnitPrice:         req.RealUnitPrice,
		pricing.FieldCustomization:     req.RealCustomizationCost,
		pricing.FieldLayout:            req.RealLayoutCost,
		pricing.FieldSupplierTransport: req.RealSupplierTransport,
		pricing.FieldClientTransport:   req.RealClientTransport,
		pricing.FieldExtraExpense:      req.RealExtraExpense,
	}
	for field, value := range realUpdates {
		if value == nil {
			continue
		}
		if err := ledger.GuardRealValueMutation(item, field); err != nil {
			return nil, err
		}
	}
	for field, value := range realUpdates {
		if value != nil {
			item.SetRealValue(field, value)
		}
	}

	if req.ProductID != nil {
		item.ProductID = req.ProductID
	}
	if req.ProductName != nil {
		item.ProductName = *req.ProductName
	}
	if req.SupplierID != nil {
		item.SupplierID = req.SupplierID
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.CustomizationCost != nil {
		item.CustomizationCost = *req.CustomizationCost
	}
	if req.LayoutCost != nil {
		item.LayoutCost = *req.LayoutCost
	}
	if req.SupplierTransport != nil {
		item.SupplierTransport = *req.SupplierTransport
	}
	if req.ClientTransport != nil {
		item.ClientTransport = *req.ClientTransport
	}
	if req.ExtraExpense != nil {
		item.ExtraExpense = *req.ExtraExpense
	}
	if req.Factor != nil {
		item.Factor = *req.Factor
	}
	if req.AgencyFeePercent != nil {
		item.AgencyFeePercent = *req.AgencyFeePercent
	}
	if req.TaxPercent != nil {
		item.TaxPercent = *req.TaxPercent
	}
	if req.ContingencyPercent != nil {
		item.ContingencyPercent = *req.ContingencyPercent
	}
	if req.MarginPercent != nil {
		item.MarginPercent = *req.MarginPercent
	}
	if req.IsApproved != nil {
		item.IsApproved = *req.IsApproved
	}
	if req.LineOrder != nil {
		item.LineOrder = *req.LineOrder
	}

	if err := s.repo.UpdateItem(ctx, *item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes a line item from an editable document.
func (s *Service) RemoveItem(ctx context.Context, orderID, itemID int64) error {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.Editable() {
		return ErrNotEditable
	}
	if findItem(o, itemID) == nil {
		return ErrNotFound
	}
	return s.repo.DeleteItem(ctx, orderID, itemID)
}

// DuplicateItem copies an existing line into a new one. Approval and paid
// flags reset: confirmations belong to the source line's log entries.
func (s *Service) DuplicateItem(ctx context.Context, orderID, itemID int64) (*pricing.LineItem, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Editable() {
		return nil, ErrNotEditable
	}
	src := findItem(o, itemID)
	if src == nil {
		return nil, ErrNotFound
	}

	copied := *src
	copied.ID = 0
	copied.IsApproved = false
	copied.UnitPricePaid = false
	copied.CustomizationPaid = false
	copied.LayoutPaid = false
	copied.SupplierTransportPaid = false
	copied.ClientTransportPaid = false
	copied.ExtraExpensePaid = false
	copied.LineOrder = len(o.Items) + 1

	created, err := s.repo.InsertItem(ctx, copied)
	if err != nil {
		return nil, fmt.Errorf("duplicate item: %w", err)
	}
	return created, nil
}

// ApplyManualPrice back-solves the calculation factor from a user-entered sale
// price and stores it, logging old and new factor with the justification. The
// result is stored unclamped: a degenerate factor re-triggers the forward
// formula's fallback on the next read.
func (s *Service) ApplyManualPrice(ctx context.Context, orderID, itemID int64, req ManualPriceRequest, actorID int64) (float64, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if !o.Editable() {
		return 0, ErrNotEditable
	}
	item := findItem(o, itemID)
	if item == nil {
		return 0, ErrNotFound
	}

	newTotal := req.Value
	if req.Mode == AdjustUnit {
		newTotal = req.Value * float64(item.Quantity)
	}

	newFactor, err := pricing.BackSolveFactor(*item, newTotal)
	if err != nil {
		return 0, err
	}

	if err := s.repo.UpdateItemFactor(ctx, itemID, newFactor); err != nil {
		return 0, fmt.Errorf("update factor: %w", err)
	}

	_, err = s.ledger.Append(ctx, ledger.Entry{
		OrderID: orderID,
		ItemID:  &itemID,
		Kind:    ledger.KindPriceAdjustment,
		Amount:  newTotal,
		ActorID: actorID,
		Message: fmt.Sprintf("manual price %s: factor %.4f -> %.4f (%s): %s",
			req.Mode, item.Factor, newFactor, money.Format(newTotal), req.Justification),
	})
	if err != nil {
		return 0, fmt.Errorf("log price adjustment: %w", err)
	}
	return newFactor, nil
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// SendBudget moves a budget DRAFT -> SENT.
func (s *Service) SendBudget(ctx context.Context, id int64) (*Order, error) {
	return s.transitionBudget(ctx, id, StatusDraft, StatusSent)
}

// RejectBudget moves a budget DRAFT|SENT -> REJECTED.
func (s *Service) RejectBudget(ctx context.Context, id int64) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Kind != KindBudget {
		return nil, ErrNotABudget
	}
	if o.Status != StatusDraft && o.Status != StatusSent {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusRejected); err != nil {
		return nil, fmt.Errorf("reject budget: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) transitionBudget(ctx context.Context, id int64, from, to Status) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Kind != KindBudget {
		return nil, ErrNotABudget
	}
	if o.Status != from {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return s.Get(ctx, id)
}

// AcceptBudget freezes the budget in ACCEPTED and forks an order as a snapshot
// copy of its header and items. The fork is a copy, not a live link: later
// edits to either document never touch the other.
func (s *Service) AcceptBudget(ctx context.Context, id int64, actorID int64) (*Order, error) {
	budget, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if budget.Kind != KindBudget {
		return nil, ErrNotABudget
	}
	if budget.Status != StatusDraft && budget.Status != StatusSent {
		return nil, ErrInvalidStatus
	}

	number, err := s.repo.GenerateNumber(ctx, KindOrder)
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}

	fork := Order{
		Number:            number,
		Kind:              KindOrder,
		Status:            StatusOpen,
		ClientID:          budget.ClientID,
		SalespersonID:     budget.SalespersonID,
		CommissionPercent: budget.CommissionPercent,
		OrderDate:         budget.OrderDate,
		DeliveryDeadline:  budget.DeliveryDeadline,
		EntryAmount:       budget.EntryAmount,
		EntryDate:         budget.EntryDate,
		RemainingAmount:   budget.RemainingAmount,
		RemainingDate:     budget.RemainingDate,
		SourceBudgetID:    &budget.ID,
		Notes:             budget.Notes,
		CreatedBy:         actorID,
	}
	for _, src := range budget.Items {
		copied := src
		copied.ID = 0
		copied.OrderID = 0
		fork.Items = append(fork.Items, copied)
	}

	created, err := s.repo.CreateOrder(ctx, fork)
	if err != nil {
		return nil, fmt.Errorf("fork order: %w", err)
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusAccepted); err != nil {
		return nil, fmt.Errorf("accept budget: %w", err)
	}

	if _, err := s.ledger.Append(ctx, ledger.Entry{
		OrderID: created.ID,
		Kind:    ledger.KindFieldChange,
		ActorID: actorID,
		Message: fmt.Sprintf("order forked from accepted budget %s", budget.Number),
	}); err != nil {
		s.logger.Warn("log budget acceptance", slog.Any("error", err))
	}
	return created, nil
}

// StartProduction moves an order OPEN -> IN_PRODUCTION.
func (s *Service) StartProduction(ctx context.Context, id int64) (*Order, error) {
	return s.transitionOrder(ctx, id, StatusOpen, StatusInProduction)
}

// CompleteOrder moves an order OPEN|IN_PRODUCTION -> COMPLETED.
func (s *Service) CompleteOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Kind != KindOrder {
		return nil, ErrNotAnOrder
	}
	if o.Status != StatusOpen && o.Status != StatusInProduction {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCompleted); err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}
	return s.Get(ctx, id)
}

// CancelOrder moves an order into CANCELLED unless it already finished.
func (s *Service) CancelOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Kind != KindOrder {
		return nil, ErrNotAnOrder
	}
	if o.Status == StatusCompleted || o.Status == StatusCancelled {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) transitionOrder(ctx context.Context, id int64, from, to Status) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Kind != KindOrder {
		return nil, ErrNotAnOrder
	}
	if o.Status != from {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return s.Get(ctx, id)
}

func findItem(o *Order, itemID int64) *pricing.LineItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// warnTrancheMismatch logs when entry+remaining drifts from the sale total.
// The data layer never enforces the equality; the warning is the contract.
func (s *Service) warnTrancheMismatch(o *Order) {
	if s.logger == nil || len(o.Items) == 0 {
		return
	}
	var saleTotal float64
	for _, item := range o.Items {
		saleTotal += pricing.SalePrice(item)
	}
	tranches := o.EntryAmount + o.RemainingAmount
	if math.Abs(tranches-saleTotal) > 0.01 {
		s.logger.Warn("tranche amounts do not match sale total",
			slog.Int64("order_id", o.ID),
			slog.String("number", o.Number),
			slog.Float64("tranches", money.Round2(tranches)),
			slog.Float64("sale_total", money.Round2(saleTotal)),
		)
	}
}
