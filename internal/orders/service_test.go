package orders

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vetrina-erp/vetrina-erp/internal/ledger"
	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

type memoryOrdersRepo struct {
	orders     map[int64]*Order
	items      map[int64]*pricing.LineItem
	nextOrder  int64
	nextItem   int64
	nextNumber int
}

func newMemoryOrdersRepo() *memoryOrdersRepo {
	return &memoryOrdersRepo{
		orders: make(map[int64]*Order),
		items:  make(map[int64]*pricing.LineItem),
	}
}

func (r *memoryOrdersRepo) CreateOrder(ctx context.Context, o Order) (*Order, error) {
	for _, existing := range r.orders {
		if existing.Kind == o.Kind && existing.Number == o.Number {
			return nil, ErrAlreadyExists
		}
	}
	r.nextOrder++
	o.ID = r.nextOrder
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	for i := range o.Items {
		r.nextItem++
		o.Items[i].ID = r.nextItem
		o.Items[i].OrderID = o.ID
		item := o.Items[i]
		r.items[item.ID] = &item
	}
	stored := o
	r.orders[o.ID] = &stored
	return &o, nil
}

func (r *memoryOrdersRepo) GetOrder(ctx context.Context, id int64) (*Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	out := *o
	out.Items = nil
	for _, item := range r.items {
		if item.OrderID == id {
			out.Items = append(out.Items, *item)
		}
	}
	return &out, nil
}

func (r *memoryOrdersRepo) GetOrderByNumber(ctx context.Context, kind DocumentKind, number string) (*Order, error) {
	for id, o := range r.orders {
		if o.Kind == kind && o.Number == number {
			return r.GetOrder(ctx, id)
		}
	}
	return nil, ErrNotFound
}

func (r *memoryOrdersRepo) ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	var out []Order
	for id, o := range r.orders {
		if req.Kind != "" && o.Kind != req.Kind {
			continue
		}
		if req.Status != "" && o.Status != req.Status {
			continue
		}
		loaded, _ := r.GetOrder(ctx, id)
		out = append(out, *loaded)
	}
	return out, len(out), nil
}

func (r *memoryOrdersRepo) UpdateHeader(ctx context.Context, o Order) error {
	stored, ok := r.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	items := stored.Items
	o.Items = items
	*stored = o
	return nil
}

func (r *memoryOrdersRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (r *memoryOrdersRepo) InsertItem(ctx context.Context, item pricing.LineItem) (*pricing.LineItem, error) {
	r.nextItem++
	item.ID = r.nextItem
	stored := item
	r.items[item.ID] = &stored
	return &item, nil
}

func (r *memoryOrdersRepo) UpdateItem(ctx context.Context, item pricing.LineItem) error {
	stored, ok := r.items[item.ID]
	if !ok {
		return ErrNotFound
	}
	*stored = item
	return nil
}

func (r *memoryOrdersRepo) DeleteItem(ctx context.Context, orderID, itemID int64) error {
	item, ok := r.items[itemID]
	if !ok || item.OrderID != orderID {
		return ErrNotFound
	}
	delete(r.items, itemID)
	return nil
}

func (r *memoryOrdersRepo) UpdateItemFactor(ctx context.Context, itemID int64, factor float64) error {
	item, ok := r.items[itemID]
	if !ok {
		return ErrNotFound
	}
	item.Factor = factor
	return nil
}

func (r *memoryOrdersRepo) GenerateNumber(ctx context.Context, kind DocumentKind) (string, error) {
	r.nextNumber++
	return fmt.Sprintf("PED-%04d", r.nextNumber), nil
}

type stubLedgerRepo struct {
	entries []ledger.Entry
}

func (r *stubLedgerRepo) GetItem(ctx context.Context, itemID int64) (*pricing.LineItem, error) {
	return nil, nil
}

func (r *stubLedgerRepo) GetTrancheState(ctx context.Context, orderID int64, tranche ledger.Tranche) (*ledger.TrancheState, error) {
	return nil, nil
}

func (r *stubLedgerRepo) ConfirmItemField(ctx context.Context, itemID int64, field pricing.CostField, entry ledger.Entry) (*ledger.Entry, error) {
	return &entry, nil
}

func (r *stubLedgerRepo) ConfirmTranche(ctx context.Context, orderID int64, tranche ledger.Tranche, entry ledger.Entry) (*ledger.Entry, error) {
	return &entry, nil
}

func (r *stubLedgerRepo) AppendEntry(ctx context.Context, entry ledger.Entry) (*ledger.Entry, error) {
	entry.ID = int64(len(r.entries) + 1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, entry)
	return &entry, nil
}

func (r *stubLedgerRepo) ListEntries(ctx context.Context, params ledger.ListParams) ([]ledger.Entry, error) {
	return r.entries, nil
}

func newTestService() (*Service, *memoryOrdersRepo, *stubLedgerRepo) {
	repo := newMemoryOrdersRepo()
	ledgerRepo := &stubLedgerRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, ledger.NewService(ledgerRepo), logger), repo, ledgerRepo
}

func budgetRequest() CreateOrderRequest {
	return CreateOrderRequest{
		Number:            "ORC-0001",
		Kind:              KindBudget,
		ClientID:          1,
		SalespersonID:     2,
		CommissionPercent: 5,
		OrderDate:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EntryAmount:       50,
		RemainingAmount:   50,
		Lines: []CreateLineItemRequest{
			{
				ProductName: "Caneca personalizada",
				Quantity:    10,
				UnitPrice:   4,
				LayoutCost:  10,
			},
		},
	}
}

func TestCreateBudget(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	o, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)
	require.Equal(t, KindBudget, o.Kind)
	require.Equal(t, StatusDraft, o.Status)
	require.Len(t, o.Items, 1)
	// Unset factor falls back to the default.
	require.Equal(t, pricing.DefaultFactor, o.Items[0].Factor)
	require.Equal(t, 1, o.Items[0].LineOrder)
	require.Equal(t, int64(7), o.CreatedBy)
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)

	_, err = svc.Create(ctx, budgetRequest(), 7)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateOrderStartsOpen(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	req := budgetRequest()
	req.Kind = KindOrder
	req.Number = "PED-0009"
	o, err := svc.Create(ctx, req, 7)
	require.NoError(t, err)
	require.Equal(t, StatusOpen, o.Status)
}

func TestUpdateItemLocksConfirmedRealValue(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	o, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)
	itemID := o.Items[0].ID

	real := 3.5
	_, err = svc.UpdateItem(ctx, o.ID, itemID, UpdateItemRequest{RealUnitPrice: &real})
	require.NoError(t, err)

	repo.items[itemID].UnitPricePaid = true

	changed := 9.9
	_, err = svc.UpdateItem(ctx, o.ID, itemID, UpdateItemRequest{RealUnitPrice: &changed})
	require.ErrorIs(t, err, ledger.ErrFieldLocked)
	require.Equal(t, 3.5, *repo.items[itemID].RealUnitPrice)

	// Other fields on the same item stay editable.
	qty := 20
	updated, err := svc.UpdateItem(ctx, o.ID, itemID, UpdateItemRequest{Quantity: &qty})
	require.NoError(t, err)
	require.Equal(t, 20, updated.Quantity)
}

func TestUpdateItemHonorsExplicitZeroOverride(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	o, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)
	itemID := o.Items[0].ID

	zero := 0.0
	_, err = svc.UpdateItem(ctx, o.ID, itemID, UpdateItemRequest{RealLayoutCost: &zero})
	require.NoError(t, err)

	item := repo.items[itemID]
	require.NotNil(t, item.RealLayoutCost)
	require.Equal(t, 0.0, item.EffectiveValue(pricing.FieldLayout))
}

func TestRemoveItemRequiresEditable(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	o, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)

	repo.orders[o.ID].Status = StatusRejected
	err = svc.RemoveItem(ctx, o.ID, o.Items[0].ID)
	require.ErrorIs(t, err, ErrNotEditable)
}

func TestDuplicateItemResetsFlags(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	o, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)
	src := repo.items[o.Items[0].ID]
	src.IsApproved = true
	src.LayoutPaid = true
	real := 12.0
	src.RealLayoutCost = &real

	copied, err := svc.DuplicateItem(ctx, o.ID, src.ID)
	require.NoError(t, err)
	require.NotEqual(t, src.ID, copied.ID)
	require.False(t, copied.IsApproved)
	require.False(t, copied.LayoutPaid)
	// Real values travel with the copy; only confirmations reset.
	require.NotNil(t, copied.RealLayoutCost)
	require.Equal(t, 12.0, *copied.RealLayoutCost)
}

func TestApplyManualPrice(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledgerRepo := newTestService()

	o, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)
	itemID := o.Items[0].ID

	// Cost 50: qty 10 x 4 + layout 10. Target total 100 back-solves the factor.
	factor, err := svc.ApplyManualPrice(ctx, o.ID, itemID, ManualPriceRequest{
		Mode:          AdjustTotal,
		Value:         100,
		Justification: "negotiated with client",
	}, 7)
	require.NoError(t, err)
	require.InDelta(t, 1.5, factor, 1e-9)
	require.InDelta(t, 1.5, repo.items[itemID].Factor, 1e-9)

	item := *repo.items[itemID]
	require.InDelta(t, 100, pricing.SalePrice(item), 1e-9)

	require.Len(t, ledgerRepo.entries, 1)
	entry := ledgerRepo.entries[0]
	require.Equal(t, ledger.KindPriceAdjustment, entry.Kind)
	require.Equal(t, o.ID, entry.OrderID)
	require.NotNil(t, entry.ItemID)
	require.Equal(t, itemID, *entry.ItemID)
	require.Contains(t, entry.Message, "negotiated with client")
}

func TestApplyManualPriceUnitMode(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	o, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)
	itemID := o.Items[0].ID

	_, err = svc.ApplyManualPrice(ctx, o.ID, itemID, ManualPriceRequest{
		Mode:          AdjustUnit,
		Value:         10,
		Justification: "unit target",
	}, 7)
	require.NoError(t, err)

	item := *repo.items[itemID]
	require.InDelta(t, 10, pricing.UnitSalePrice(item), 1e-9)
}

func TestApplyManualPriceRejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledgerRepo := newTestService()

	o, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)
	itemID := o.Items[0].ID
	before := repo.items[itemID].Factor

	_, err = svc.ApplyManualPrice(ctx, o.ID, itemID, ManualPriceRequest{
		Mode:          AdjustTotal,
		Value:         -5,
		Justification: "bad input",
	}, 7)
	require.ErrorIs(t, err, pricing.ErrNonPositivePrice)
	require.Equal(t, before, repo.items[itemID].Factor)
	require.Empty(t, ledgerRepo.entries)
}

func TestAcceptBudgetForksSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledgerRepo := newTestService()

	budget, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)

	order, err := svc.AcceptBudget(ctx, budget.ID, 7)
	require.NoError(t, err)
	require.Equal(t, KindOrder, order.Kind)
	require.Equal(t, StatusOpen, order.Status)
	require.NotNil(t, order.SourceBudgetID)
	require.Equal(t, budget.ID, *order.SourceBudgetID)
	require.Len(t, order.Items, 1)
	require.NotEqual(t, budget.Items[0].ID, order.Items[0].ID)

	frozen, err := svc.Get(ctx, budget.ID)
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, frozen.Status)

	// The frozen budget rejects further edits.
	_, err = svc.AddItem(ctx, budget.ID, CreateLineItemRequest{ProductName: "Brinde", Quantity: 1})
	require.ErrorIs(t, err, ErrNotEditable)

	// The fork is a copy: editing the order leaves the budget untouched.
	qty := 99
	_, err = svc.UpdateItem(ctx, order.ID, order.Items[0].ID, UpdateItemRequest{Quantity: &qty})
	require.NoError(t, err)
	require.Equal(t, 10, repo.items[budget.Items[0].ID].Quantity)

	require.Len(t, ledgerRepo.entries, 1)
	require.Equal(t, ledger.KindFieldChange, ledgerRepo.entries[0].Kind)
	require.Equal(t, order.ID, ledgerRepo.entries[0].OrderID)

	// Acceptance is one-way.
	_, err = svc.AcceptBudget(ctx, budget.ID, 7)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	budget, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)

	sent, err := svc.SendBudget(ctx, budget.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)

	_, err = svc.SendBudget(ctx, budget.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.StartProduction(ctx, budget.ID)
	require.ErrorIs(t, err, ErrNotAnOrder)

	order, err := svc.AcceptBudget(ctx, budget.ID, 7)
	require.NoError(t, err)

	inProd, err := svc.StartProduction(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInProduction, inProd.Status)

	done, err := svc.CompleteOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, done.Status)

	_, err = svc.CancelOrder(ctx, order.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.SendBudget(ctx, order.ID)
	require.ErrorIs(t, err, ErrNotABudget)
}

func TestAggregateBalances(t *testing.T) {
	item := pricing.NewLineItem()
	item.Quantity = 10
	item.UnitPrice = 4
	item.LayoutCost = 10
	item.Factor = 1.35
	real := 8.0
	item.RealUnitPrice = &real

	o := Order{
		EntryAmount:     40,
		EntryConfirmed:  true,
		RemainingAmount: 40,
		Items:           []pricing.LineItem{item},
	}

	t1 := Aggregate(o)
	// Cost 50, factor 1.35: sale 50/0.65.
	require.InDelta(t, 50.0/0.65, t1.RevenueEstimated, 1e-9)
	require.InDelta(t, 50, t1.CostEstimated, 1e-9)
	// Real unit price 8 x 10 + layout 10.
	require.InDelta(t, 90, t1.CostReal, 1e-9)
	require.InDelta(t, 40, t1.Received, 1e-9)
	require.InDelta(t, -10, t1.EstimatedBalance, 1e-9)
	// Negative real balance is reported as-is.
	require.InDelta(t, -50, t1.RealBalance, 1e-9)

	o.RemainingConfirmed = true
	t2 := Aggregate(o)
	require.InDelta(t, 80, t2.Received, 1e-9)
	require.InDelta(t, -10, t2.RealBalance, 1e-9)
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	o, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)

	repo.orders[o.ID].EntryConfirmed = true
	totals, err := svc.Totals(ctx, o.ID)
	require.NoError(t, err)
	require.InDelta(t, 50, totals.CostEstimated, 1e-9)
	require.InDelta(t, 50, totals.Received, 1e-9)
	require.InDelta(t, 0, totals.EstimatedBalance, 1e-9)
}

func TestUpdateHeaderRequiresEditable(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	o, err := svc.Create(ctx, budgetRequest(), 7)
	require.NoError(t, err)
	repo.orders[o.ID].Status = StatusAccepted

	notes := "late change"
	_, err = svc.UpdateHeader(ctx, o.ID, UpdateOrderRequest{Notes: &notes})
	require.ErrorIs(t, err, ErrNotEditable)
}
