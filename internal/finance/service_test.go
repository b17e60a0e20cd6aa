package finance

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vetrina-erp/vetrina-erp/internal/ledger"
	"github.com/vetrina-erp/vetrina-erp/internal/orders"
	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

type memoryFinanceRepo struct {
	orders []orders.Order
}

func (r *memoryFinanceRepo) ListSettlementOrders(ctx context.Context) ([]orders.Order, error) {
	return r.orders, nil
}

func realValue(v float64) *float64 { return &v }

func dueOn(t time.Time) *time.Time { return &t }

func settlementOrder() orders.Order {
	item := pricing.NewLineItem()
	item.ID = 1
	item.OrderID = 1
	item.ProductName = "Camiseta estampada"
	item.Quantity = 10
	item.UnitPrice = 4
	item.LayoutCost = 10
	item.RealUnitPrice = realValue(4.5)
	item.UnitPricePaid = true

	return orders.Order{
		ID:                1,
		Number:            "PED-0001",
		Kind:              orders.KindOrder,
		Status:            orders.StatusInProduction,
		ClientID:          3,
		SalespersonID:     9,
		CommissionPercent: 10,
		EntryAmount:       40,
		EntryConfirmed:    true,
		RemainingAmount:   60,
		Items:             []pricing.LineItem{item},
	}
}

func TestReceivables(t *testing.T) {
	ctx := context.Background()
	repo := &memoryFinanceRepo{orders: []orders.Order{settlementOrder()}}
	svc := NewService(repo, nil, nil)

	out, err := svc.Receivables(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Pending tranches sort first.
	require.Equal(t, ReceivableStatusPending, out[0].Status)
	require.Equal(t, ledger.TrancheRemaining, out[0].Tranche)
	require.Equal(t, 60.0, out[0].Amount)
	require.Equal(t, ReceivableStatusReceived, out[1].Status)
	require.Equal(t, ledger.TrancheEntry, out[1].Tranche)
}

func TestAgingBuckets(t *testing.T) {
	ctx := context.Background()
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	overdue45 := settlementOrder()
	overdue45.ID = 2
	overdue45.EntryConfirmed = false
	overdue45.EntryDate = dueOn(asOf.AddDate(0, 0, -45))
	overdue45.RemainingAmount = 0

	noDueDate := settlementOrder()
	noDueDate.ID = 3
	noDueDate.RemainingAmount = 25

	repo := &memoryFinanceRepo{orders: []orders.Order{overdue45, noDueDate}}
	svc := NewService(repo, nil, nil)

	bucket, err := svc.Aging(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, 40.0, bucket.Bucket60)
	// Undated pending tranches count as current.
	require.Equal(t, 25.0, bucket.Current)
	require.Zero(t, bucket.Bucket30)
	require.Zero(t, bucket.Bucket90)
}

func TestPayablesOnlyRealOrPaidLines(t *testing.T) {
	ctx := context.Background()
	repo := &memoryFinanceRepo{orders: []orders.Order{settlementOrder()}}
	svc := NewService(repo, nil, nil)

	out, err := svc.Payables(ctx)
	require.NoError(t, err)
	// Only the unit-price line has a real value; layout stays estimate-only.
	require.Len(t, out, 1)
	require.Equal(t, pricing.FieldUnitPrice, out[0].Field)
	require.True(t, out[0].Paid)
	require.True(t, out[0].HasReal)
	// Effective real 4.5 times quantity 10.
	require.Equal(t, 45.0, out[0].Amount)
}

func TestCommissionsConfirmedTranchesOnly(t *testing.T) {
	ctx := context.Background()
	o := settlementOrder()
	repo := &memoryFinanceRepo{orders: []orders.Order{o}}
	svc := NewService(repo, nil, nil)

	out, err := svc.Commissions(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, int64(9), out[0].SalespersonID)
	// 10% of the confirmed entry tranche of 40.
	require.Equal(t, 4.0, out[0].Total)
	require.Equal(t, 40.0, out[0].Orders[0].BaseAmount)
}

func TestCommissionsSkipUnconfirmed(t *testing.T) {
	ctx := context.Background()
	o := settlementOrder()
	o.EntryConfirmed = false
	repo := &memoryFinanceRepo{orders: []orders.Order{o}}
	svc := NewService(repo, nil, nil)

	out, err := svc.Commissions(ctx)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestOverviewCaching(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := &memoryFinanceRepo{orders: []orders.Order{settlementOrder()}}
	svc := NewService(repo, client, nil)

	first, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, 40.0, first.ReceivedTotal)
	require.Equal(t, 60.0, first.PendingReceivables)
	require.Equal(t, 45.0, first.SettledPayables)
	require.Equal(t, 4.0, first.AccruedCommissions)
	require.Equal(t, 1, first.OrdersInProgress)

	// The snapshot now serves from cache: a data change is invisible until refresh.
	repo.orders = nil
	cached, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, first, cached)

	refreshed, err := svc.RefreshOverview(ctx)
	require.NoError(t, err)
	require.Zero(t, refreshed.ReceivedTotal)

	after, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, refreshed, after)
}
